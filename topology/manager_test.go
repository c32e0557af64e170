package topology_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/cessoc/rmq/topology"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestNewManager(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()

	bindings := manager.QueueBindings()
	require.Contains(bindings, topology.DefaultExchange)
	require.Empty(bindings[topology.DefaultExchange])
	require.Empty(manager.Exchanges())
	require.Empty(manager.ExchangeNames())
}

func TestManager_RegisterExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	exchange := mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))

	err := manager.RegisterExchange(exchange)
	require.NoError(err)

	registered, ok := manager.Exchange("test")
	require.True(ok)
	require.True(exchange.Equal(registered))
	require.Contains(manager.QueueBindings(), "test")
	require.Empty(manager.Queues("test"))
}

func TestManager_RegisterDuplicateExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	exchange := mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))

	require.NoError(manager.RegisterExchange(exchange))
	require.NoError(manager.RegisterExchange(exchange))

	require.Len(manager.Exchanges(), 1)
	require.Equal([]string{"test"}, manager.ExchangeNames())
}

func TestManager_RegisterConflictingExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))

	err := manager.RegisterExchange(mustExchange(t, "test", topology.WithPassive(true)))
	require.True(errors.Is(err, topology.ErrConflict))
	require.Contains(err.Error(), "'test'")

	registered, _ := manager.Exchange("test")
	require.False(registered.Passive())
}

func TestManager_RegisterExchangeBatchIsAtomic(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	err := manager.RegisterExchange(
		mustExchange(t, "first"),
		mustExchange(t, "second"),
		mustExchange(t, "first", topology.WithInternal(true)),
	)
	require.True(errors.Is(err, topology.ErrConflict))
	require.Empty(manager.Exchanges())

	err = manager.RegisterExchange(mustExchange(t, "first"), mustExchange(t, "first"))
	require.NoError(err)
	require.Equal([]string{"first"}, manager.ExchangeNames())
}

func TestManager_RegisterReservedExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	err := manager.RegisterExchange(mustExchange(t, topology.DefaultExchange))
	require.True(errors.Is(err, topology.ErrValidation))
}

func TestManager_RegisterBlankValues(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	err := manager.RegisterExchange(topology.Exchange{})
	require.True(errors.Is(err, topology.ErrValidation))

	err = manager.RegisterExchange(mustExchange(t, "valid"), topology.Exchange{})
	require.True(errors.Is(err, topology.ErrValidation))

	err = manager.RegisterQueue(topology.Queue{})
	require.True(errors.Is(err, topology.ErrValidation))

	_, ok := manager.Exchange("")
	require.False(ok)
	require.Empty(manager.Exchanges())
	require.Empty(manager.Queues(topology.DefaultExchange))
	require.Empty(manager.AllQueues())
}

func TestManager_RegisterQueue(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	exchange := mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))
	queue := mustQueue(t, "test")

	require.NoError(manager.RegisterExchange(exchange))
	require.NoError(manager.RegisterQueue(queue, "test"))

	queues := manager.Queues("test")
	require.Len(queues, 1)
	require.True(queue.Equal(queues[0]))
}

func TestManager_RegisterDuplicateQueue(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))

	queue := mustQueue(t, "test")
	require.NoError(manager.RegisterQueue(queue, "test"))
	require.NoError(manager.RegisterQueue(queue, "test"))

	require.Len(manager.Queues("test"), 1)
}

func TestManager_RegisterConflictingQueue(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))
	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "test"))

	err := manager.RegisterQueue(mustQueue(t, "test", topology.WithQueuePassive(true)), "test")
	require.True(errors.Is(err, topology.ErrConflict))

	queues := manager.Queues("test")
	require.Len(queues, 1)
	require.False(queues[0].Passive())
}

func TestManager_RegisterConflictingQueueAcrossExchanges(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(
		mustExchange(t, "e1", topology.WithExchangeType(topology.Fanout)),
		mustExchange(t, "e2", topology.WithExchangeType(topology.Fanout)),
	))
	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "e1"))

	err := manager.RegisterQueue(mustQueue(t, "test", topology.WithExclusive(true)), "e2")
	require.True(errors.Is(err, topology.ErrConflict))
	require.Empty(manager.Queues("e2"))

	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "e2"))
	require.Len(manager.Queues("e2"), 1)
}

func TestManager_RegisterQueueWithoutRoutingKeys(t *testing.T) {
	for _, kind := range []topology.ExchangeType{topology.Direct, topology.Topic, topology.Headers} {
		manager := topology.NewManager()
		require.NoError(t, manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(kind))))

		err := manager.RegisterQueue(mustQueue(t, "test"), "test")
		require.True(t, errors.Is(err, topology.ErrConfiguration), kind)
		require.Empty(t, manager.Queues("test"))

		err = manager.RegisterQueue(mustQueue(t, "routed", topology.WithRoutingKeys("key")), "test")
		require.NoError(t, err, kind)
	}
}

func TestManager_RegisterQueueFanoutWithoutRoutingKeys(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))

	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "test"))
}

func TestManager_RegisterQueueDefaultExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	queue := mustQueue(t, "test")

	require.NoError(manager.RegisterQueue(queue))

	queues := manager.QueueBindings()[topology.DefaultExchange]
	require.Len(queues, 1)
	require.True(queue.Equal(queues[0]))

	require.NoError(manager.RegisterQueue(queue, topology.DefaultExchange))
	require.Len(manager.Queues(topology.DefaultExchange), 1)
}

func TestManager_RegisterQueueBeforeExchange(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	err := manager.RegisterQueue(mustQueue(t, "test"), "test")
	require.True(errors.Is(err, topology.ErrNotFound))
	require.Contains(err.Error(), "'test'")
	require.Empty(manager.AllQueues())
}

func TestManager_RegisterQueueMultipleExchanges(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(
		mustExchange(t, "test1", topology.WithExchangeType(topology.Fanout)),
		mustExchange(t, "test2", topology.WithExchangeType(topology.Fanout)),
	))
	require.NoError(manager.RegisterQueue(mustQueue(t, "other"), "test1"))

	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "test1", "test2"))

	bindings := manager.QueueBindings()
	require.Equal("test", bindings["test1"][len(bindings["test1"])-1].Name())
	require.Equal("test", bindings["test2"][len(bindings["test2"])-1].Name())
	require.Len(manager.AllQueues(), 2)
}

func TestManager_RegisterQueueMultipleExchangesIsAtomic(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(
		mustExchange(t, "fanout", topology.WithExchangeType(topology.Fanout)),
		mustExchange(t, "direct"),
	))

	err := manager.RegisterQueue(mustQueue(t, "test"), "fanout", "direct")
	require.True(errors.Is(err, topology.ErrConfiguration))
	require.Empty(manager.Queues("fanout"))

	err = manager.RegisterQueue(mustQueue(t, "test"), "fanout", "missing")
	require.True(errors.Is(err, topology.ErrNotFound))
	require.Empty(manager.Queues("fanout"))
	require.Empty(manager.AllQueues())
}

func TestManager_RegisterQueueKeepsInsertionOrder(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))

	for i := 0; i < 5; i++ {
		require.NoError(manager.RegisterQueue(mustQueue(t, fmt.Sprintf("q%d", i)), "test"))
	}
	require.NoError(manager.RegisterQueue(mustQueue(t, "q0"), "test"))

	names := make([]string, 0)
	for _, queue := range manager.Queues("test") {
		names = append(names, queue.Name())
	}
	require.Equal([]string{"q0", "q1", "q2", "q3", "q4"}, names)
}

func TestManager_ReadsAreCopies(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))
	require.NoError(manager.RegisterQueue(mustQueue(t, "test"), "test"))

	bindings := manager.QueueBindings()
	bindings["test"] = nil
	delete(manager.Exchanges(), "test")

	require.Len(manager.Queues("test"), 1)
	require.Len(manager.Exchanges(), 1)
}

func TestManager_ConcurrentRegistration(t *testing.T) {
	require := require.New(t)

	manager := topology.NewManager()
	require.NoError(manager.RegisterExchange(mustExchange(t, "test", topology.WithExchangeType(topology.Fanout))))

	queues := make([]topology.Queue, 32)
	for i := range queues {
		queues[i] = mustQueue(t, "shared", topology.WithConsume(i%2 == 0))
	}

	conflicts := atomic.NewInt32(0)
	successes := atomic.NewInt32(0)
	wg := &sync.WaitGroup{}
	for _, queue := range queues {
		wg.Add(1)
		go func(queue topology.Queue) {
			defer wg.Done()
			err := manager.RegisterQueue(queue, "test")
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, topology.ErrConflict):
				conflicts.Add(1)
			}
		}(queue)
	}
	wg.Wait()

	require.EqualValues(32, successes.Load()+conflicts.Load())
	require.EqualValues(16, successes.Load())
	require.EqualValues(16, conflicts.Load())
	require.Len(manager.Queues("test"), 1)
}
