//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("hydrocalc-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "lookup controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type requestFixture struct {
	Name            string          `json:"name"`
	Request         json.RawMessage `json:"request"`
	ExpectErrorKind string          `json:"expect_error_kind"`
}

// loadRequestFixtures reads data/mock/calculation_requests.json.
func loadRequestFixtures(t *testing.T) []requestFixture {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "calculation_requests.json"))
	require.NoError(t, err)

	var fixtures []requestFixture
	require.NoError(t, json.Unmarshal(data, &fixtures))
	return fixtures
}

// validFixtures returns only the fixtures expected to compute successfully.
func validFixtures(t *testing.T) []requestFixture {
	t.Helper()

	all := loadRequestFixtures(t)
	out := make([]requestFixture, 0, len(all))
	for _, fx := range all {
		if fx.ExpectErrorKind == "" {
			out = append(out, fx)
		}
	}
	return out
}
