package topology

import (
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type ExchangeType string

const (
	Direct  ExchangeType = amqp.ExchangeDirect
	Fanout  ExchangeType = amqp.ExchangeFanout
	Topic   ExchangeType = amqp.ExchangeTopic
	Headers ExchangeType = amqp.ExchangeHeaders
)

func (t ExchangeType) Validate() error {
	switch t {
	case Direct, Fanout, Topic, Headers:
		return nil
	default:
		return errors.WithMessagef(ErrValidation, "unknown exchange type '%s'", t)
	}
}

// RequiresRoutingKey reports whether queues bound to an exchange of this type
// must carry at least one routing key. Headers exchanges are treated like direct
// and topic ones.
func (t ExchangeType) RequiresRoutingKey() bool {
	return t != Fanout
}

type ExchangeOption func(e *Exchange)

// Exchange is the declaration intent of a single exchange.
// Use NewExchange or the With* copies, which always validate the result.
type Exchange struct {
	name       string
	kind       ExchangeType
	passive    bool
	durable    bool
	autoDelete bool
	internal   bool
}

func NewExchange(name string, opts ...ExchangeOption) (Exchange, error) {
	e := Exchange{
		name:    name,
		kind:    Direct,
		durable: true, // default value
	}
	for _, opt := range opts {
		opt(&e)
	}
	err := e.validate()
	if err != nil {
		return Exchange{}, err
	}
	return e, nil
}

func NewDirectExchange(name string, opts ...ExchangeOption) (Exchange, error) {
	return NewExchange(name, append([]ExchangeOption{WithExchangeType(Direct)}, opts...)...)
}

func NewFanoutExchange(name string, opts ...ExchangeOption) (Exchange, error) {
	return NewExchange(name, append([]ExchangeOption{WithExchangeType(Fanout)}, opts...)...)
}

func NewTopicExchange(name string, opts ...ExchangeOption) (Exchange, error) {
	return NewExchange(name, append([]ExchangeOption{WithExchangeType(Topic)}, opts...)...)
}

func NewHeadersExchange(name string, opts ...ExchangeOption) (Exchange, error) {
	return NewExchange(name, append([]ExchangeOption{WithExchangeType(Headers)}, opts...)...)
}

func WithExchangeType(kind ExchangeType) ExchangeOption {
	return func(e *Exchange) {
		e.kind = kind
	}
}

func WithPassive(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.passive = value
	}
}

func WithExchangeDurable(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.durable = value
	}
}

func WithExchangeAutoDelete(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.autoDelete = value
	}
}

func WithInternal(value bool) ExchangeOption {
	return func(e *Exchange) {
		e.internal = value
	}
}

func (e Exchange) Name() string {
	return e.name
}

func (e Exchange) Type() ExchangeType {
	return e.kind
}

func (e Exchange) Passive() bool {
	return e.passive
}

func (e Exchange) Durable() bool {
	return e.durable
}

func (e Exchange) AutoDelete() bool {
	return e.autoDelete
}

func (e Exchange) Internal() bool {
	return e.internal
}

// WithName returns a copy of the exchange renamed to name.
func (e Exchange) WithName(name string) (Exchange, error) {
	e.name = name
	err := e.validate()
	if err != nil {
		return Exchange{}, err
	}
	return e, nil
}

// WithType returns a copy of the exchange with another type.
func (e Exchange) WithType(kind ExchangeType) (Exchange, error) {
	e.kind = kind
	err := e.validate()
	if err != nil {
		return Exchange{}, err
	}
	return e, nil
}

func (e Exchange) Equal(other Exchange) bool {
	return e.name == other.name &&
		e.kind == other.kind &&
		e.passive == other.passive &&
		e.durable == other.durable &&
		e.autoDelete == other.autoDelete &&
		e.internal == other.internal
}

func (e Exchange) validate() error {
	err := ValidateName(e.name)
	if err != nil {
		return errors.WithMessage(err, "exchange")
	}
	err = e.kind.Validate()
	if err != nil {
		return errors.WithMessagef(err, "exchange '%s'", e.name)
	}
	return nil
}
