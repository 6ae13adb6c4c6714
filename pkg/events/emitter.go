// Package events publishes configuration lifecycle events
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	ConfigurationEstimated      = "configuration.estimated"
	ConfigurationWeightsUpdated = "configuration.weights_updated"
)

// Publisher writes a single event to the event bus
type Publisher interface {
	Publish(ctx context.Context, event *kafka.ConfigurationEvent) error
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *kafka.ConfigurationEvent) error { return nil }

// EstimatedPayload is the data of a configuration.estimated event
type EstimatedPayload struct {
	TotalRecords    int64 `json:"total_records"`
	EstimatedPairs  int64 `json:"estimated_pairs"`
	EstimatedTimeMs int64 `json:"estimated_time_ms"`
}

// WeightsPayload is the data of a configuration.weights_updated event
type WeightsPayload struct {
	Rows       []models.ConfigurationRow `json:"rows"`
	Prior      float64                   `json:"prior"`
	Vectors    int                       `json:"vectors"`
	Iterations int                       `json:"iterations"`
}

// Emitter handles event emission for configurations
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil publisher drops every event.
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitEstimated emits the refreshed workload estimate of cfg
func (e *Emitter) EmitEstimated(ctx context.Context, cfg *models.MatchingConfiguration) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitEstimated")
	defer span.End()

	return e.emit(ctx, ConfigurationEstimated, cfg, EstimatedPayload{
		TotalRecords:    cfg.TotalRecords,
		EstimatedPairs:  cfg.EstimatedPairs,
		EstimatedTimeMs: cfg.EstimatedTimeMs,
	})
}

// EmitWeightsUpdated emits the new m/u weights of cfg
func (e *Emitter) EmitWeightsUpdated(ctx context.Context, cfg *models.MatchingConfiguration, prior float64, vectors, iterations int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitWeightsUpdated")
	defer span.End()

	return e.emit(ctx, ConfigurationWeightsUpdated, cfg, WeightsPayload{
		Rows:       cfg.Rows,
		Prior:      prior,
		Vectors:    vectors,
		Iterations: iterations,
	})
}

func (e *Emitter) emit(ctx context.Context, eventType string, cfg *models.MatchingConfiguration, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.ConfigurationEvent{
		EventType:       eventType,
		ConfigurationID: cfg.ID,
		Name:            cfg.Name,
		Data:            data,
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type":       eventType,
			"configuration_id": cfg.ID,
		}).Error("Failed to emit configuration event")
		return err
	}
	return nil
}
