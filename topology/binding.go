package topology

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

type Binding struct {
	ExchangeName string
	QueueName    string
	RoutingKey   string
	Route        *Route
	Args         amqp.Table
}

func NewBinding(exchangeName string, queueName string, routingKey string, route *Route) Binding {
	return Binding{
		ExchangeName: exchangeName,
		QueueName:    queueName,
		RoutingKey:   routingKey,
		Route:        route,
		Args:         amqp.Table{},
	}
}
