package topology

import (
	"sync"

	"github.com/pkg/errors"
)

const (
	// DefaultExchange is the binding key for queues registered without an explicit exchange.
	DefaultExchange = "default"
)

// Manager is the registry of exchanges, queues and the bindings between them.
// Registration is idempotent for identical definitions and rejects divergent ones.
// A batch that fails any check leaves the registry unchanged.
type Manager struct {
	lock *sync.RWMutex

	exchanges     map[string]Exchange
	exchangeOrder []string
	queueBindings map[string][]Queue

	// every registered queue by name, regardless of exchange
	queues     map[string]Queue
	queueOrder []string
}

func NewManager() *Manager {
	return &Manager{
		lock:      &sync.RWMutex{},
		exchanges: map[string]Exchange{},
		queueBindings: map[string][]Queue{
			DefaultExchange: {},
		},
		queues: map[string]Queue{},
	}
}

func (m *Manager) RegisterExchange(exchanges ...Exchange) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	pending := make([]Exchange, 0, len(exchanges))
	staged := make(map[string]Exchange, len(exchanges))
	for _, exchange := range exchanges {
		err := exchange.validate()
		if err != nil {
			return err
		}
		name := exchange.Name()
		if name == DefaultExchange {
			return errors.WithMessagef(ErrValidation, "exchange name '%s' is reserved for the default exchange", name)
		}

		known, ok := m.exchanges[name]
		if !ok {
			known, ok = staged[name]
		}
		switch {
		case !ok:
			staged[name] = exchange
			pending = append(pending, exchange)
		case !known.Equal(exchange):
			return errors.WithMessagef(ErrConflict, "exchange '%s' is already registered with a different definition", name)
		}
	}

	for _, exchange := range pending {
		name := exchange.Name()
		m.exchanges[name] = exchange
		m.exchangeOrder = append(m.exchangeOrder, name)
		m.queueBindings[name] = []Queue{}
	}
	return nil
}

// RegisterQueue binds queue to every named exchange, or to DefaultExchange when none is given.
func (m *Manager) RegisterQueue(queue Queue, exchangeNames ...string) error {
	if len(exchangeNames) == 0 {
		exchangeNames = []string{DefaultExchange}
	}

	err := queue.validate()
	if err != nil {
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	name := queue.Name()
	known, ok := m.queues[name]
	if ok && !known.Equal(queue) {
		return errors.WithMessagef(ErrConflict, "queue '%s' is already registered with a different definition", name)
	}

	targets := make([]string, 0, len(exchangeNames))
	seen := make(map[string]bool, len(exchangeNames))
	for _, exchangeName := range exchangeNames {
		if seen[exchangeName] {
			continue
		}
		seen[exchangeName] = true

		err = m.checkTarget(queue, exchangeName)
		if err != nil {
			return err
		}
		if !m.isBound(name, exchangeName) {
			targets = append(targets, exchangeName)
		}
	}

	if !ok {
		m.queues[name] = queue
		m.queueOrder = append(m.queueOrder, name)
	}
	for _, exchangeName := range targets {
		m.queueBindings[exchangeName] = append(m.queueBindings[exchangeName], queue)
	}
	return nil
}

func (m *Manager) Exchange(name string) (Exchange, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	exchange, ok := m.exchanges[name]
	return exchange, ok
}

func (m *Manager) Exchanges() map[string]Exchange {
	m.lock.RLock()
	defer m.lock.RUnlock()

	exchanges := make(map[string]Exchange, len(m.exchanges))
	for name, exchange := range m.exchanges {
		exchanges[name] = exchange
	}
	return exchanges
}

// ExchangeNames returns registered exchange names in registration order.
func (m *Manager) ExchangeNames() []string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return append([]string{}, m.exchangeOrder...)
}

func (m *Manager) QueueBindings() map[string][]Queue {
	m.lock.RLock()
	defer m.lock.RUnlock()

	bindings := make(map[string][]Queue, len(m.queueBindings))
	for name, queues := range m.queueBindings {
		bindings[name] = append([]Queue{}, queues...)
	}
	return bindings
}

// AllQueues returns every registered queue once, in first-registration order.
func (m *Manager) AllQueues() []Queue {
	m.lock.RLock()
	defer m.lock.RUnlock()

	queues := make([]Queue, 0, len(m.queueOrder))
	for _, name := range m.queueOrder {
		queues = append(queues, m.queues[name])
	}
	return queues
}

// Queues returns the queues bound to exchangeName in registration order.
func (m *Manager) Queues(exchangeName string) []Queue {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return append([]Queue{}, m.queueBindings[exchangeName]...)
}

type snapshot struct {
	exchanges     []Exchange
	queueBindings map[string][]Queue
	queues        []Queue
}

// snapshot copies the whole registry under a single read lock.
func (m *Manager) snapshot() snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s := snapshot{
		exchanges:     make([]Exchange, 0, len(m.exchangeOrder)),
		queueBindings: make(map[string][]Queue, len(m.queueBindings)),
		queues:        make([]Queue, 0, len(m.queueOrder)),
	}
	for _, name := range m.exchangeOrder {
		s.exchanges = append(s.exchanges, m.exchanges[name])
	}
	for name, queues := range m.queueBindings {
		s.queueBindings[name] = append([]Queue{}, queues...)
	}
	for _, name := range m.queueOrder {
		s.queues = append(s.queues, m.queues[name])
	}
	return s
}

func (m *Manager) checkTarget(queue Queue, exchangeName string) error {
	if exchangeName == DefaultExchange {
		return nil
	}
	exchange, ok := m.exchanges[exchangeName]
	if !ok {
		return errors.WithMessagef(ErrNotFound, "queue '%s': exchange '%s' is not registered", queue.Name(), exchangeName)
	}
	if exchange.Type().RequiresRoutingKey() && !queue.HasRoutingKeys() {
		return errors.WithMessagef(
			ErrConfiguration,
			"queue '%s' has no routing keys but exchange '%s' is of type '%s'",
			queue.Name(), exchangeName, exchange.Type(),
		)
	}
	return nil
}

func (m *Manager) isBound(queueName string, exchangeName string) bool {
	for _, queue := range m.queueBindings[exchangeName] {
		if queue.Name() == queueName {
			return true
		}
	}
	return false
}
