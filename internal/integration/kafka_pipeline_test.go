//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/adapter/kafka"
	"github.com/couchcryptid/hydrocalc/internal/calc"
	"github.com/couchcryptid/hydrocalc/internal/config"
	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/couchcryptid/hydrocalc/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRequestTopic = "test-requests"
	testResultTopic  = "test-results"
)

// resultMessage holds a deserialized message read from the result topic.
type resultMessage struct {
	Record  domain.ExportRecord
	Key     string
	Headers map[string]string
}

// readResult reads a single message from the result consumer and deserializes it.
func readResult(ctx context.Context, t *testing.T, consumer *kafkago.Reader) resultMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from result topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.ExportRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal result message")

	return resultMessage{Record: rec, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaRequestTopic:  testRequestTopic,
		KafkaResultTopic:   testResultTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newResultConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testResultTopic,
		GroupID:     fmt.Sprintf("test-results-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func newService() *calc.Service {
	return calc.New(discardLogger(), observability.NewMetricsForTesting(), 100)
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor) and
// kafka.Writer (loader) round-trip a request and its export record through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testResultTopic)
	cfg := testConfig(broker, "test-reader")

	payload := validFixtures(t)[0].Request

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testRequestTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte("test-key"), Value: payload}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawRequest
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from request topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.JSONEq(t, string(payload), string(raw.Value))
	assert.Equal(t, testRequestTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(newService(), discardLogger())
	rec, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.ExportRecord{rec}))

	rm := readResult(ctx, t, newResultConsumer(t, broker))
	assert.Equal(t, rec.ID, rm.Key)
	assert.Equal(t, string(rec.Kind), rm.Headers["kind"])
	_, err = time.Parse(domain.ExportTimeFormat, rm.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should use the export time format")
	assert.Equal(t, rec.ID, rm.Record.ID)
	assert.JSONEq(t, string(rec.Results), string(rm.Record.Results))
}

// TestPipelineEndToEnd wires the full pipeline (Reader -> Transformer -> Writer)
// with real Kafka and verifies every valid fixture produces one export record.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testResultTopic)
	cfg := testConfig(broker, "test-pipeline")

	fixtures := validFixtures(t)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testRequestTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(fixtures))
	for i, fx := range fixtures {
		msgs = append(msgs, kafkago.Message{Key: []byte(fmt.Sprintf("request-%d", i)), Value: fx.Request})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(newService(), discardLogger()), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newResultConsumer(t, broker)
	received := make([]resultMessage, 0, len(fixtures))
	for len(received) < len(fixtures) {
		received = append(received, readResult(ctx, t, consumer))
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	kindCounts := map[domain.CalculationKind]int{}
	for _, rm := range received {
		kindCounts[rm.Record.Kind]++
		assert.Equal(t, rm.Record.ID, rm.Key)
		assert.Equal(t, string(rm.Record.Kind), rm.Headers["kind"])
		assert.NotEmpty(t, rm.Headers["computed_at"])
	}
	assert.Equal(t, 3, kindCounts[domain.KindOpenChannel])
	assert.Equal(t, 2, kindCounts[domain.KindPipeNetwork])
	assert.Equal(t, 2, kindCounts[domain.KindStormwater])
	assert.Equal(t, 1, kindCounts[domain.KindStormwaterComparison])

	// Spot-check the forest/D scenario.
	var found bool
	for _, rm := range received {
		if rm.Record.Kind != domain.KindStormwater {
			continue
		}
		var res domain.RunoffResult
		require.NoError(t, json.Unmarshal(rm.Record.Results, &res))
		if res.CurveNumber != 79 {
			continue
		}
		found = true
		assert.InDelta(t, 48.58, res.RunoffDepth, 0.01)
	}
	assert.True(t, found, "expected the forest soil group D runoff record")
}

// TestPipelinePoisonPill verifies that an invalid request is skipped and the
// pipeline continues processing valid requests.
func TestPipelinePoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRequestTopic)
	createTopic(t, broker, testResultTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testRequestTopic}
	t.Cleanup(func() { _ = producer.Close() })

	valid := `{"kind":"stormwater","stormwater":{"rainfall_depth":100,"catchment_area":10,"land_use":"forest","soil_group":"D"}}`
	outOfRange := `{"kind":"open-channel","channel":{"width":99,"depth":1,"slope":0.001,"roughness":0.013}}`
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad-json"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("bad-range"), Value: []byte(outOfRange)},
		kafkago.Message{Key: []byte("good"), Value: []byte(valid)},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(newService(), discardLogger()), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newResultConsumer(t, broker)
	rm := readResult(ctx, t, consumer)
	assert.Equal(t, domain.KindStormwater, rm.Record.Kind)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on result topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
