package rmq

import (
	"github.com/cessoc/rmq/topology"
	"go.uber.org/zap"
)

type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) LogObserver {
	return LogObserver{
		logger: logger,
	}
}

func (o LogObserver) ExchangeDeclared(exchange topology.Exchange) {
	o.logger.Info("exchange declared",
		zap.String("exchange", exchange.Name()),
		zap.String("type", string(exchange.Type())),
		zap.Bool("passive", exchange.Passive()),
	)
}

func (o LogObserver) QueueDeclared(queue topology.Queue) {
	o.logger.Info("queue declared",
		zap.String("queue", queue.Name()),
		zap.Bool("passive", queue.Passive()),
		zap.Any("arguments", queue.Arguments()),
	)
}

func (o LogObserver) BindingDeclared(binding topology.Binding) {
	o.logger.Debug("binding declared",
		zap.String("exchange", binding.ExchangeName),
		zap.String("queue", binding.QueueName),
		zap.String("routingKey", binding.RoutingKey),
	)
}

func (o LogObserver) DeclarationError(err error) {
	o.logger.Error("declaration failed", zap.Error(err))
}
