package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yourorg/forecast-service/internal/config"
	"github.com/yourorg/forecast-service/internal/model"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventType tags the lifecycle stage an event announces.
type EventType string

const (
	EventPredictionCreated  EventType = "prediction.created"
	EventPredictionVerified EventType = "prediction.verified"
	EventPredictionScored   EventType = "prediction.scored"
	EventPerformanceUpdated EventType = "performance.updated"
)

// Event is the single envelope published to the forecast-events topic.
// Fields beyond the identity block are populated per event type.
type Event struct {
	Type         EventType     `json:"type"`
	Symbol       string        `json:"symbol"`
	Horizon      model.Horizon `json:"horizon,omitempty"`
	TargetPeriod string        `json:"target_period,omitempty"`
	TargetDate   string        `json:"target_date,omitempty"`

	Direction     model.Direction `json:"direction,omitempty"`
	PredictedMove *float64        `json:"predicted_move,omitempty"`
	Confidence    *int            `json:"confidence_score,omitempty"`
	Probability   *float64        `json:"probability,omitempty"`
	RiskLevel     string          `json:"risk_level,omitempty"`

	RealizedOpen  *float64 `json:"realized_open,omitempty"`
	RealizedClose *float64 `json:"realized_close,omitempty"`
	WasCorrect    *bool    `json:"was_correct,omitempty"`
	AccuracyScore *float64 `json:"accuracy_score,omitempty"`
	ErrorMargin   *float64 `json:"error_margin,omitempty"`

	AccuracyRate         *float64 `json:"accuracy_rate,omitempty"`
	ConfidenceAdjustment *float64 `json:"confidence_adjustment,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}

// Producer publishes lifecycle events to a single topic, keyed by symbol
// so per-symbol ordering is preserved across partitions.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg config.KafkaConfig, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}
}

// PublishForecast announces a freshly persisted forecast.
func (p *Producer) PublishForecast(ctx context.Context, rec *model.PredictionRecord) error {
	move, confidence, probability := rec.PredictedMove, rec.Confidence, rec.Probability
	return p.publish(ctx, Event{
		Type:          EventPredictionCreated,
		Symbol:        rec.Symbol,
		Horizon:       rec.Horizon,
		TargetPeriod:  rec.TargetPeriod,
		TargetDate:    rec.TargetDate.Format("2006-01-02"),
		Direction:     rec.Direction,
		PredictedMove: &move,
		Confidence:    &confidence,
		Probability:   &probability,
		RiskLevel:     rec.RiskLevel,
	})
}

// PublishVerified announces a prediction whose realized prices were just
// attached.
func (p *Producer) PublishVerified(ctx context.Context, rec *model.PredictionRecord, openPrice, closePrice float64) error {
	return p.publish(ctx, Event{
		Type:          EventPredictionVerified,
		Symbol:        rec.Symbol,
		Horizon:       rec.Horizon,
		TargetPeriod:  rec.TargetPeriod,
		TargetDate:    rec.TargetDate.Format("2006-01-02"),
		RealizedOpen:  &openPrice,
		RealizedClose: &closePrice,
	})
}

// PublishScored announces a graded prediction.
func (p *Producer) PublishScored(ctx context.Context, rec *model.PredictionRecord, wasCorrect bool, accuracyScore, errorMargin float64) error {
	return p.publish(ctx, Event{
		Type:          EventPredictionScored,
		Symbol:        rec.Symbol,
		Horizon:       rec.Horizon,
		TargetPeriod:  rec.TargetPeriod,
		TargetDate:    rec.TargetDate.Format("2006-01-02"),
		Direction:     rec.Direction,
		WasCorrect:    &wasCorrect,
		AccuracyScore: &accuracyScore,
		ErrorMargin:   &errorMargin,
	})
}

// PublishPerformance announces a refreshed performance snapshot.
func (p *Producer) PublishPerformance(ctx context.Context, snap *model.PerformanceSnapshot) error {
	rate, adjustment := snap.AccuracyRate, snap.ConfidenceAdjustment
	return p.publish(ctx, Event{
		Type:                 EventPerformanceUpdated,
		Symbol:               snap.Symbol,
		AccuracyRate:         &rate,
		ConfidenceAdjustment: &adjustment,
	})
}

func (p *Producer) publish(ctx context.Context, event Event) error {
	event.EmittedAt = time.Now().UTC()

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Symbol),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to write forecast event",
			zap.Error(err),
			zap.String("type", string(event.Type)),
			zap.String("symbol", event.Symbol))
		return err
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
