package consumer

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Handler interface {
	Handle(ctx context.Context, delivery *amqp.Delivery)
}

type HandlerFunc func(ctx context.Context, delivery *amqp.Delivery)

func (f HandlerFunc) Handle(ctx context.Context, delivery *amqp.Delivery) {
	f(ctx, delivery)
}

type Middleware func(next Handler) Handler

// Chain wraps handler so that middlewares run in the given order, first one outermost.
func Chain(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
