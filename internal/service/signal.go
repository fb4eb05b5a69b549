package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/totegamma/wbconstraints"
)

var tracer = otel.Tracer("service")

// PurgeEvent is published when stored results of entities were dropped.
type PurgeEvent struct {
	Origin string                   `json:"origin"`
	IDs    []wbconstraints.EntityID `json:"ids"`
}

// PurgeSignal broadcasts purges between instances over redis pub/sub.
type PurgeSignal struct {
	rdb     *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

func NewPurgeSignal(redisClient *redis.Client, prefix string, logger *zap.Logger) *PurgeSignal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeSignal{
		rdb:     redisClient,
		channel: prefix + ":purge",
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

func (s *PurgeSignal) Channel() string {
	return s.channel
}

func (s *PurgeSignal) PublishPurge(ctx context.Context, ids []wbconstraints.EntityID) error {
	ctx, span := tracer.Start(ctx, "Service.PurgeSignal.PublishPurge")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	jsonstr, err := json.Marshal(PurgeEvent{Origin: s.origin, IDs: ids})
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, s.channel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to publish purge")
	}

	return nil
}

// Subscribe calls handler for every purge published by another instance
// until ctx is done. Events from this instance are skipped.
func (s *PurgeSignal) Subscribe(ctx context.Context, handler func(context.Context, []wbconstraints.EntityID) error) error {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return errors.Wrap(err, "failed to subscribe to purge channel")
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event PurgeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Warn("malformed purge event", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			if event.Origin == s.origin {
				continue
			}
			if err := handler(ctx, event.IDs); err != nil {
				s.logger.Warn("failed to apply purge event", zap.Error(err))
			}
		}
	}
}
