package topology

import (
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	MaxPriorityLimit = 255

	rabbitMqMaxPriorityArg   = "x-max-priority"
	rabbitMqMessageTtlArg    = "x-message-ttl"
	rabbitMqDlxArg           = "x-dead-letter-exchange"
	rabbitMqDlqRoutingKeyArg = "x-dead-letter-routing-key"
	rabbitMqMaxLengthArg     = "x-max-length"
)

// QueueArguments holds broker specific queue arguments. Zero values mean unset.
type QueueArguments struct {
	MaxPriority          int
	MessageTTL           time.Duration
	DeadLetterExchange   string
	DeadLetterRoutingKey string
	MaxLength            int
}

// Arguments is the wire projection of the set fields.
// It is built on every call, so changes to the fields are always reflected.
func (a QueueArguments) Arguments() amqp.Table {
	args := amqp.Table{}
	if a.MaxPriority > 0 {
		args[rabbitMqMaxPriorityArg] = a.MaxPriority
	}
	if a.MessageTTL > 0 {
		args[rabbitMqMessageTtlArg] = a.MessageTTL.Milliseconds()
	}
	if a.DeadLetterExchange != "" {
		args[rabbitMqDlxArg] = a.DeadLetterExchange
	}
	if a.DeadLetterRoutingKey != "" {
		args[rabbitMqDlqRoutingKeyArg] = a.DeadLetterRoutingKey
	}
	if a.MaxLength > 0 {
		args[rabbitMqMaxLengthArg] = a.MaxLength
	}
	return args
}

func (a QueueArguments) Validate() error {
	if a.MaxPriority < 0 || a.MaxPriority > MaxPriorityLimit {
		return errors.WithMessagef(ErrValidation, "max priority %d is out of range [0, %d], 0 means unset", a.MaxPriority, MaxPriorityLimit)
	}
	if a.MessageTTL < 0 {
		return errors.WithMessagef(ErrValidation, "negative message ttl %s", a.MessageTTL)
	}
	if a.MaxLength < 0 {
		return errors.WithMessagef(ErrValidation, "negative max length %d", a.MaxLength)
	}
	if a.DeadLetterExchange != "" {
		err := ValidateName(a.DeadLetterExchange)
		if err != nil {
			return errors.WithMessage(err, "dead letter exchange")
		}
	}
	return nil
}

func (a QueueArguments) Equal(other QueueArguments) bool {
	return a.MaxPriority == other.MaxPriority &&
		a.MessageTTL == other.MessageTTL &&
		a.DeadLetterExchange == other.DeadLetterExchange &&
		a.DeadLetterRoutingKey == other.DeadLetterRoutingKey &&
		a.MaxLength == other.MaxLength
}
