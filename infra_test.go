package rmq_test

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

// amqpUrl creates a throwaway vhost through the management API.
// Tests using it are skipped unless RMQ_HOST points to a broker.
func amqpUrl(t *testing.T) string {
	host := os.Getenv("RMQ_HOST")
	if host == "" {
		t.Skip("RMQ_HOST is not set")
	}
	require := require.New(t)

	user := envOrDefault("RMQ_USER", "guest")
	pass := envOrDefault("RMQ_PASS", "guest")

	vhostPrefix := make([]byte, 4)
	_, err := rand.Read(vhostPrefix)
	require.NoError(err)
	vhost := fmt.Sprintf("%x_%s", vhostPrefix, strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_")))

	vhostUrl := fmt.Sprintf("http://%s:15672/api/vhosts/%s", host, vhost)

	req, err := http.NewRequest(http.MethodPut, vhostUrl, nil)
	require.NoError(err)
	req.SetBasicAuth(user, pass)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(err)
	_ = resp.Body.Close()
	require.EqualValues(http.StatusCreated, resp.StatusCode)

	t.Cleanup(func() {
		req, err := http.NewRequest(http.MethodDelete, vhostUrl, nil)
		require.NoError(err)
		req.SetBasicAuth(user, pass)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(err)
		_ = resp.Body.Close()
		require.EqualValues(http.StatusNoContent, resp.StatusCode)
	})

	return fmt.Sprintf("amqp://%s:%s@%s:5672/%s", user, pass, host, vhost)
}

func envOrDefault(name string, defValue string) string {
	value := os.Getenv(name)
	if value != "" {
		return value
	}
	return defValue
}

func amqpChannel(t *testing.T, url string) *amqp091.Channel {
	require := require.New(t)
	c, err := amqp091.Dial(url)
	require.NoError(err)
	t.Cleanup(func() {
		_ = c.Close()
	})

	ch, err := c.Channel()
	require.NoError(err)

	return ch
}

func publishMessages(t *testing.T, ch *amqp091.Channel, exchange string, routingKey string, count int) {
	require := require.New(t)

	for i := 0; i < count; i++ {
		err := ch.Publish(exchange, routingKey, true, false, amqp091.Publishing{})
		require.NoError(err)
	}
}

func queueSize(t *testing.T, url string, queue string) int {
	require := require.New(t)

	ch := amqpChannel(t, url)

	q, err := ch.QueueInspect(queue)
	require.NoError(err)
	return q.Messages
}
