package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/rfw-verification/internal/config"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

// Writer produces verification reports to a Kafka topic.
// It implements pipeline.ReportLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the reports of a sweep in a single
// WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, reports []verify.Report) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("reports produced", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message keyed by run id.
// Reports without a result (invalid configurations) are keyed by label.
func serializeToMessage(report verify.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report %q: %w", report.Label, err)
	}
	key := report.Label
	generatedAt := ""
	if report.Result != nil {
		key = report.Result.RunID
		generatedAt = report.Result.GeneratedAt.Format(time.RFC3339)
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "label", Value: []byte(report.Label)},
			{Key: "status", Value: []byte(report.Status)},
			{Key: "generated_at", Value: []byte(generatedAt)},
		},
	}, nil
}
