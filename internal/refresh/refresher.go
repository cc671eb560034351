// Package refresh advances stored order progress as scheduled steps
// elapse, so dashboards and the customer area see movement without a
// request having to trigger it.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/cartpulse/order-tracker/internal/kafka"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/redisx"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type OrderStore interface {
	ListOpen(ctx context.Context, limit int) ([]orders.Order, error)
	UpdateProgress(ctx context.Context, id string, steps []timeline.CompiledStep, currentIdx, progress int, status orders.Status) error
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Refresher struct {
	Orders   OrderStore
	Redis    *redis.Client
	Producer EventPublisher
	Service  string
	Batch    int
	Now      func() time.Time
}

// Run sweeps on a fixed cadence until the context is canceled. One
// sweep runs at startup so a restart does not wait a full interval.
func (rf *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := rf.Sweep(ctx); err != nil {
			logx.FromContext(ctx).Errorw("sweep failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep re-evaluates every open order against now and persists the ones
// that moved. Each order is a single document write; a failure on one
// order does not stop the sweep.
func (rf *Refresher) Sweep(ctx context.Context) (int, error) {
	log := logx.FromContext(ctx)

	batch := rf.Batch
	if batch <= 0 {
		batch = 500
	}
	open, err := rf.Orders.ListOpen(ctx, batch)
	if err != nil {
		return 0, err
	}

	now := rf.now()
	updated := 0
	for _, o := range open {
		p := timeline.Evaluate(o.CustomSteps, now)
		status := orders.StatusFor(o.Status, p.Percent)
		if p.Percent == o.Progress && p.CurrentStepIndex == o.CurrentStepIndex && status == o.Status {
			continue
		}

		if err := rf.Orders.UpdateProgress(ctx, o.ID, p.Steps, p.CurrentStepIndex, p.Percent, status); err != nil {
			log.Errorw("update progress", "order_id", o.ID, "err", err)
			continue
		}
		updated++

		rf.publishNewlyCompleted(o, p)
		rf.refreshCache(ctx, o, p, status)
	}

	log.Infow("sweep done", "open", len(open), "updated", updated)
	return updated, nil
}

func (rf *Refresher) publishNewlyCompleted(o orders.Order, p timeline.Progress) {
	if rf.Producer == nil {
		return
	}
	for i, step := range p.Steps {
		if !step.Completed || o.CustomSteps[i].Completed {
			continue
		}
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventStepCompleted,
			EventVersion:  1,
			OccurredAt:    rf.now(),
			Producer:      rf.Service,
			CorrelationID: o.ID,
			Payload: kafkax.MustMarshal(orders.StepCompletedPayload{
				OrderID:       o.ID,
				StoreID:       o.StoreID,
				StepIndex:     i,
				StepName:      step.Name,
				ScheduledFor:  step.ScheduledFor,
				Progress:      p.Percent,
				OrderComplete: p.Terminal,
			}),
		}
		rf.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStepCompleted)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
}

func (rf *Refresher) refreshCache(ctx context.Context, o orders.Order, p timeline.Progress, status orders.Status) {
	if rf.Redis == nil {
		return
	}
	o.CustomSteps = p.Steps
	o.CurrentStepIndex = p.CurrentStepIndex
	o.Progress = p.Percent
	o.Status = status
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderProgress, o.ID)
	_ = rf.Redis.Set(ctx, key, b, redisx.TTLProgressCache).Err()
}

func (rf *Refresher) now() time.Time {
	if rf.Now != nil {
		return rf.Now()
	}
	return time.Now().UTC()
}
