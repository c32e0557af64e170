package topology

import (
	"sort"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Bindings maps a routing key to the route handling it. A nil route is a plain binding.
type Bindings map[string]*Route

func (b Bindings) Equal(other Bindings) bool {
	if len(b) != len(other) {
		return false
	}
	for key, route := range b {
		otherRoute, ok := other[key]
		if !ok || otherRoute != route {
			return false
		}
	}
	return true
}

type QueueOption func(q *Queue)

type Queue struct {
	name        string
	bindings    Bindings
	consumerTag string
	consume     bool
	passive     bool
	durable     bool
	exclusive   bool
	autoDelete  bool
	args        *QueueArguments
}

func NewQueue(name string, opts ...QueueOption) (Queue, error) {
	q := Queue{
		name:     name,
		bindings: Bindings{},
		durable:  true, // default value
	}
	for _, opt := range opts {
		opt(&q)
	}
	err := q.validate()
	if err != nil {
		return Queue{}, err
	}
	return q, nil
}

func WithRoute(routingKey string, route *Route) QueueOption {
	return func(q *Queue) {
		q.bindings[routingKey] = route
	}
}

func WithRoutingKeys(routingKeys ...string) QueueOption {
	return func(q *Queue) {
		for _, key := range routingKeys {
			q.bindings[key] = nil
		}
	}
}

func WithConsumerTag(tag string) QueueOption {
	return func(q *Queue) {
		q.consumerTag = tag
	}
}

func WithConsume(value bool) QueueOption {
	return func(q *Queue) {
		q.consume = value
	}
}

func WithQueuePassive(value bool) QueueOption {
	return func(q *Queue) {
		q.passive = value
	}
}

func WithDurable(value bool) QueueOption {
	return func(q *Queue) {
		q.durable = value
	}
}

func WithExclusive(value bool) QueueOption {
	return func(q *Queue) {
		q.exclusive = value
	}
}

func WithAutoDelete(value bool) QueueOption {
	return func(q *Queue) {
		q.autoDelete = value
	}
}

func WithArguments(args QueueArguments) QueueOption {
	return func(q *Queue) {
		q.args = &args
	}
}

func (q Queue) Name() string {
	return q.name
}

// Bindings returns a copy of the routing key to route mapping.
func (q Queue) Bindings() Bindings {
	bindings := make(Bindings, len(q.bindings))
	for key, route := range q.bindings {
		bindings[key] = route
	}
	return bindings
}

// RoutingKeys returns the bound routing keys in lexical order.
func (q Queue) RoutingKeys() []string {
	keys := make([]string, 0, len(q.bindings))
	for key := range q.bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (q Queue) HasRoutingKeys() bool {
	return len(q.bindings) > 0
}

func (q Queue) ConsumerTag() string {
	return q.consumerTag
}

func (q Queue) Consume() bool {
	return q.consume
}

func (q Queue) Passive() bool {
	return q.passive
}

func (q Queue) Durable() bool {
	return q.durable
}

func (q Queue) Exclusive() bool {
	return q.exclusive
}

func (q Queue) AutoDelete() bool {
	return q.autoDelete
}

// QueueArguments returns the attached arguments, if any.
func (q Queue) QueueArguments() (QueueArguments, bool) {
	if q.args == nil {
		return QueueArguments{}, false
	}
	return *q.args, true
}

// Arguments forwards to the attached QueueArguments, empty table otherwise.
func (q Queue) Arguments() amqp.Table {
	if q.args == nil {
		return amqp.Table{}
	}
	return q.args.Arguments()
}

// WithName returns a copy of the queue renamed to name.
func (q Queue) WithName(name string) (Queue, error) {
	q.name = name
	err := q.validate()
	if err != nil {
		return Queue{}, err
	}
	return q, nil
}

// WithQueueArguments returns a copy of the queue with args attached.
func (q Queue) WithQueueArguments(args QueueArguments) (Queue, error) {
	q.args = &args
	err := q.validate()
	if err != nil {
		return Queue{}, err
	}
	return q, nil
}

func (q Queue) Equal(other Queue) bool {
	return q.name == other.name &&
		q.bindings.Equal(other.bindings) &&
		q.consumerTag == other.consumerTag &&
		q.consume == other.consume &&
		q.passive == other.passive &&
		q.durable == other.durable &&
		q.exclusive == other.exclusive &&
		q.autoDelete == other.autoDelete &&
		argumentsEqual(q.args, other.args)
}

func (q Queue) validate() error {
	err := ValidateName(q.name)
	if err != nil {
		return errors.WithMessage(err, "queue")
	}
	if q.args != nil {
		err = q.args.Validate()
		if err != nil {
			return errors.WithMessagef(err, "queue '%s' arguments", q.name)
		}
	}
	return nil
}

func argumentsEqual(a *QueueArguments, b *QueueArguments) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
