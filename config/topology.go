package config

import (
	"io"
	"os"
	"time"

	"github.com/cessoc/rmq/topology"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type TopologyFile struct {
	Exchanges []ExchangeSpec `yaml:"exchanges"`
	Queues    []QueueSpec    `yaml:"queues"`
}

type ExchangeSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Passive    bool   `yaml:"passive"`
	Durable    *bool  `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Internal   bool   `yaml:"internal"`
}

type QueueSpec struct {
	Name        string            `yaml:"name"`
	Exchanges   []string          `yaml:"exchanges"`
	RoutingKeys []string          `yaml:"routing_keys"`
	Routes      map[string]string `yaml:"routes"`
	ConsumerTag string            `yaml:"consumer_tag"`
	Consume     bool              `yaml:"consume"`
	Passive     bool              `yaml:"passive"`
	Durable     *bool             `yaml:"durable"`
	Exclusive   bool              `yaml:"exclusive"`
	AutoDelete  bool              `yaml:"auto_delete"`
	Arguments   *ArgumentsSpec    `yaml:"arguments"`
}

type ArgumentsSpec struct {
	MaxPriority          int           `yaml:"max_priority"`
	MessageTTL           time.Duration `yaml:"message_ttl"`
	DeadLetterExchange   string        `yaml:"dead_letter_exchange"`
	DeadLetterRoutingKey string        `yaml:"dead_letter_routing_key"`
	MaxLength            int           `yaml:"max_length"`
}

// Routes resolves route names used in a topology file to handler references.
// A nil Routes loads the file for declaration only: every route name resolves to
// a single handler-less route shared by all queues that name it.
type Routes map[string]*topology.Route

func NewRoutes(routes ...*topology.Route) Routes {
	r := make(Routes, len(routes))
	for _, route := range routes {
		r[route.Name()] = route
	}
	return r
}

func LoadTopologyFile(path string, manager *topology.Manager, routes Routes) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WithMessage(err, "open topology file")
	}
	defer f.Close()

	return LoadTopology(f, manager, routes)
}

// LoadTopology registers all exchanges of the document, then all queues, in document order.
func LoadTopology(r io.Reader, manager *topology.Manager, routes Routes) error {
	file := TopologyFile{}
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	err := decoder.Decode(&file)
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.WithMessage(err, "decode topology")
	}

	if routes == nil {
		routes = file.declarationRoutes()
	}

	exchanges := make([]topology.Exchange, 0, len(file.Exchanges))
	for _, spec := range file.Exchanges {
		exchange, err := spec.build()
		if err != nil {
			return err
		}
		exchanges = append(exchanges, exchange)
	}
	err = manager.RegisterExchange(exchanges...)
	if err != nil {
		return errors.WithMessage(err, "register exchanges")
	}

	for _, spec := range file.Queues {
		queue, err := spec.build(routes)
		if err != nil {
			return err
		}
		err = manager.RegisterQueue(queue, spec.Exchanges...)
		if err != nil {
			return errors.WithMessagef(err, "register queue '%s'", spec.Name)
		}
	}

	return nil
}

func (f TopologyFile) declarationRoutes() Routes {
	routes := Routes{}
	for _, queue := range f.Queues {
		for _, name := range queue.Routes {
			if _, ok := routes[name]; !ok {
				routes[name] = topology.NewRoute(name, nil)
			}
		}
	}
	return routes
}

func (s ExchangeSpec) build() (topology.Exchange, error) {
	opts := []topology.ExchangeOption{
		topology.WithPassive(s.Passive),
		topology.WithExchangeAutoDelete(s.AutoDelete),
		topology.WithInternal(s.Internal),
	}
	if s.Type != "" {
		opts = append(opts, topology.WithExchangeType(topology.ExchangeType(s.Type)))
	}
	if s.Durable != nil {
		opts = append(opts, topology.WithExchangeDurable(*s.Durable))
	}
	return topology.NewExchange(s.Name, opts...)
}

func (s QueueSpec) build(routes Routes) (topology.Queue, error) {
	opts := []topology.QueueOption{
		topology.WithRoutingKeys(s.RoutingKeys...),
		topology.WithConsumerTag(s.ConsumerTag),
		topology.WithConsume(s.Consume),
		topology.WithQueuePassive(s.Passive),
		topology.WithExclusive(s.Exclusive),
		topology.WithAutoDelete(s.AutoDelete),
	}
	for key, name := range s.Routes {
		route, ok := routes[name]
		if !ok {
			return topology.Queue{}, errors.WithMessagef(topology.ErrNotFound, "queue '%s': route '%s'", s.Name, name)
		}
		opts = append(opts, topology.WithRoute(key, route))
	}
	if s.Durable != nil {
		opts = append(opts, topology.WithDurable(*s.Durable))
	}
	if s.Arguments != nil {
		opts = append(opts, topology.WithArguments(topology.QueueArguments{
			MaxPriority:          s.Arguments.MaxPriority,
			MessageTTL:           s.Arguments.MessageTTL,
			DeadLetterExchange:   s.Arguments.DeadLetterExchange,
			DeadLetterRoutingKey: s.Arguments.DeadLetterRoutingKey,
			MaxLength:            s.Arguments.MaxLength,
		}))
	}
	return topology.NewQueue(s.Name, opts...)
}
