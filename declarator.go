package rmq

import (
	"github.com/cessoc/rmq/topology"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the declarator needs.
type Channel interface {
	ExchangeDeclare(name string, kind string, durable bool, autoDelete bool, internal bool, noWait bool, args amqp.Table) error
	ExchangeDeclarePassive(name string, kind string, durable bool, autoDelete bool, internal bool, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable bool, autoDelete bool, exclusive bool, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable bool, autoDelete bool, exclusive bool, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name string, key string, exchange string, noWait bool, args amqp.Table) error
	Close() error
}

type Declarator struct {
	cfg      topology.Declarations
	ch       Channel
	observer Observer
	noWait   bool
}

func NewDeclarator(manager *topology.Manager, ch Channel, opts ...DeclaratorOption) *Declarator {
	d := &Declarator{
		cfg:      topology.Compile(manager),
		ch:       ch,
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Declarator) Run() error {
	err := d.run()
	if err != nil {
		d.observer.DeclarationError(err)
		return err
	}
	return nil
}

func (d *Declarator) run() error {
	for _, exchange := range d.cfg.Exchanges {
		err := d.declareExchange(exchange)
		if err != nil {
			return errors.WithMessagef(err, "declare exchange '%s'", exchange.Name())
		}
		d.observer.ExchangeDeclared(exchange)
	}

	for _, queue := range d.cfg.Queues {
		err := d.declareQueue(queue)
		if err != nil {
			return errors.WithMessagef(err, "declare queue '%s'", queue.Name())
		}
		d.observer.QueueDeclared(queue)
	}

	for _, binding := range d.cfg.Bindings {
		err := d.ch.QueueBind(binding.QueueName, binding.RoutingKey, binding.ExchangeName, d.noWait, binding.Args)
		if err != nil {
			return errors.WithMessagef(err, "declare binding for queue '%s' to exchange '%s'", binding.QueueName, binding.ExchangeName)
		}
		d.observer.BindingDeclared(binding)
	}

	return nil
}

func (d *Declarator) declareExchange(e topology.Exchange) error {
	declare := d.ch.ExchangeDeclare
	if e.Passive() {
		declare = d.ch.ExchangeDeclarePassive
	}
	return declare(e.Name(), string(e.Type()), e.Durable(), e.AutoDelete(), e.Internal(), d.noWait, nil)
}

func (d *Declarator) declareQueue(q topology.Queue) error {
	declare := d.ch.QueueDeclare
	if q.Passive() {
		declare = d.ch.QueueDeclarePassive
	}
	_, err := declare(q.Name(), q.Durable(), q.AutoDelete(), q.Exclusive(), d.noWait, q.Arguments())
	return err
}

func (d *Declarator) Close() error {
	err := d.ch.Close()
	return errors.WithMessage(err, "channel close")
}
