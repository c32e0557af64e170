package topology

// Declarations is the flat, ordered view of a registry that a broker gateway declares.
type Declarations struct {
	Exchanges []Exchange
	Queues    []Queue
	Bindings  []Binding
}

// Compile flattens m: exchanges in registration order, each queue once in
// first-registration order, then one binding per exchange, queue and routing key.
// Queues on fanout exchanges get a single binding with an empty routing key.
// Queues on DefaultExchange are routed by the broker on their name and get no binding.
func Compile(m *Manager) Declarations {
	s := m.snapshot()

	cfg := Declarations{
		Exchanges: s.exchanges,
		Queues:    s.queues,
	}
	for _, exchange := range s.exchanges {
		name := exchange.Name()
		for _, queue := range s.queueBindings[name] {
			if !exchange.Type().RequiresRoutingKey() {
				cfg.Bindings = append(cfg.Bindings, NewBinding(name, queue.Name(), "", nil))
				continue
			}
			bindings := queue.Bindings()
			for _, key := range queue.RoutingKeys() {
				cfg.Bindings = append(cfg.Bindings, NewBinding(name, queue.Name(), key, bindings[key]))
			}
		}
	}

	return cfg
}
