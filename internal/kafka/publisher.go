package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rzzdr/options-backtester/pkg/models"
	"github.com/rzzdr/options-backtester/pkg/utils/errors"
	"github.com/rzzdr/options-backtester/pkg/utils/logger"
)

// Publisher streams backtest output to Kafka topics as JSON. Publishing is
// best effort: a broker outage degrades to logged errors without stopping
// the run.
type Publisher struct {
	resultsWriter *kafka.Writer
	tradesWriter  *kafka.Writer
	log           *logger.Logger
}

// Config holds broker and topic settings for the publisher.
type Config struct {
	Brokers      []string
	ResultsTopic string
	TradesTopic  string
}

// NewPublisher creates a publisher for the given brokers and topics.
func NewPublisher(cfg Config) *Publisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		}
	}
	return &Publisher{
		resultsWriter: newWriter(cfg.ResultsTopic),
		tradesWriter:  newWriter(cfg.TradesTopic),
		log:           logger.GetLogger("kafka.publisher"),
	}
}

// PublishDailyResult publishes one daily result row, keyed by date.
func (p *Publisher) PublishDailyResult(ctx context.Context, result models.DailyResult) error {
	return p.publishJSON(ctx, p.resultsWriter, result.Date.Format("2006-01-02"), result)
}

// PublishTrade publishes one trade ledger entry, keyed by date.
func (p *Publisher) PublishTrade(ctx context.Context, trade models.TradeRecord) error {
	return p.publishJSON(ctx, p.tradesWriter, trade.Date.Format("2006-01-02"), trade)
}

func (p *Publisher) publishJSON(ctx context.Context, w *kafka.Writer, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "serializing message to JSON")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		p.log.Errorf("Failed to publish to %s: %v", w.Topic, err)
		return errors.Wrapf(err, "publishing to %s", w.Topic)
	}
	return nil
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	p.log.Info("Closing publisher")
	if err := p.resultsWriter.Close(); err != nil {
		return err
	}
	return p.tradesWriter.Close()
}
