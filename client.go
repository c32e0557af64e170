package rmq

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cessoc/rmq/topology"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultDialTimeout = 30 * time.Second

type DialConfig struct {
	amqp.Config
	DialTimeout time.Duration
}

// Connection is the part of an AMQP connection the Client needs.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Dialer opens a Connection to url. It must give up once ctx is done.
type Dialer func(ctx context.Context, url string, config DialConfig) (Connection, error)

// Client applies a registry to a live broker over a single short-lived connection.
type Client struct {
	url              string
	dialConfig       DialConfig
	dialer           Dialer
	declaratorOption []DeclaratorOption
}

func New(url string, options ...ClientOption) *Client {
	c := &Client{
		url: url,
		dialConfig: DialConfig{
			Config: amqp.Config{
				Heartbeat: 10 * time.Second,
				Locale:    "en_US",
			},
			DialTimeout: defaultDialTimeout,
		},
		dialer: DialAmqp,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Declare
// Dial the broker, declare every exchange, queue and binding of manager, then disconnect
// Registration must be complete before the call, manager is only read
// When ctx is done the connection is closed and Declare returns after the session has stopped
func (c *Client) Declare(ctx context.Context, manager *topology.Manager) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	s := &session{lock: &sync.Mutex{}}
	result := make(chan error, 1)
	go func() {
		result <- c.declare(ctx, s, manager)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		s.abort()
		<-result
		return ctx.Err()
	}
}

func (c *Client) declare(ctx context.Context, s *session, manager *topology.Manager) error {
	conn, err := c.dialer(ctx, c.url, c.dialConfig)
	if err != nil {
		return errors.WithMessage(err, "dial")
	}
	err = s.attach(ctx, conn)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.WithMessage(err, "create channel for declarator")
	}
	declarator := NewDeclarator(manager, ch, c.declaratorOption...)
	err = declarator.Run()
	if err != nil {
		_ = declarator.Close()
		return errors.WithMessage(err, "run declarator")
	}
	err = declarator.Close()
	if err != nil {
		return errors.WithMessage(err, "close declarator")
	}
	return nil
}

// DialAmqp is the default Dialer.
// The tcp dial follows ctx, the AMQP handshake is cut short by closing the socket when ctx is done.
func DialAmqp(ctx context.Context, url string, config DialConfig) (Connection, error) {
	timeout := config.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	var stop func() bool
	if config.Dial == nil {
		config.Dial = func(network string, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: timeout}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// heartbeats are not running yet, deadline is cleared once the handshake completes
			err = conn.SetDeadline(time.Now().Add(timeout))
			if err != nil {
				_ = conn.Close()
				return nil, err
			}
			stop = context.AfterFunc(ctx, func() {
				_ = conn.Close()
			})
			return conn, nil
		}
	}

	conn, err := amqp.DialConfig(url, config.Config)
	if stop != nil {
		stop()
	}
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn: conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c amqpConnection) Close() error {
	return c.conn.Close()
}

// session owns the connection of a single Declare call.
type session struct {
	lock    *sync.Mutex
	conn    Connection
	aborted bool
}

// attach takes ownership of conn unless ctx is already done.
func (s *session) attach(ctx context.Context, conn Connection) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.aborted || ctx.Err() != nil {
		_ = conn.Close()
		return ctx.Err()
	}
	s.conn = conn
	return nil
}

func (s *session) abort() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.aborted = true
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
