package rmq

type ClientOption func(c *Client)

func WithDialConfig(config DialConfig) ClientOption {
	return func(c *Client) {
		c.dialConfig = config
	}
}

func WithDeclaratorOptions(options ...DeclaratorOption) ClientOption {
	return func(c *Client) {
		c.declaratorOption = options
	}
}

// WithDialer replaces DialAmqp, the dialer receives the configured DialConfig.
func WithDialer(dialer Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}
