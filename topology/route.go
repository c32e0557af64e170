package topology

import (
	"github.com/cessoc/rmq/consumer"
)

// Route is a handler reference attached to a queue binding.
// Routes are compared by identity: share one *Route between definitions
// that must be considered equal.
type Route struct {
	name    string
	handler consumer.Handler
}

func NewRoute(name string, handler consumer.Handler) *Route {
	return &Route{
		name:    name,
		handler: handler,
	}
}

func (r *Route) Name() string {
	return r.name
}

func (r *Route) Handler() consumer.Handler {
	return r.handler
}
