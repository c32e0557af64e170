package rmq

import (
	"github.com/cessoc/rmq/topology"
)

type Observer interface {
	ExchangeDeclared(exchange topology.Exchange)
	QueueDeclared(queue topology.Queue)
	BindingDeclared(binding topology.Binding)
	DeclarationError(err error)
}

type NoopObserver struct {
}

func (n NoopObserver) ExchangeDeclared(exchange topology.Exchange) {

}

func (n NoopObserver) QueueDeclared(queue topology.Queue) {

}

func (n NoopObserver) BindingDeclared(binding topology.Binding) {

}

func (n NoopObserver) DeclarationError(err error) {

}
