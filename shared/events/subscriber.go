package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Handler func(ctx context.Context, event Event) error

type SubscriberConfig struct {
	Group    string
	Consumer string
	Stream   string
	Handler  Handler
	// BatchSize defaults to 10, Block to 5s.
	BatchSize int64
	Block     time.Duration
	// Entries pending longer than ClaimAfter (default 1m) are taken over
	// from consumers that went away.
	ClaimAfter time.Duration
}

// Subscriber reads one stream as a member of a consumer group.
type Subscriber struct {
	client redis.Cmdable
	cfg    SubscriberConfig
	log    *logrus.Entry

	now       func() time.Time
	nextClaim time.Time
}

func NewSubscriber(client redis.Cmdable, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.ClaimAfter <= 0 {
		cfg.ClaimAfter = time.Minute
	}
	return &Subscriber{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		log: logrus.WithFields(logrus.Fields{
			"stream":   cfg.Stream,
			"group":    cfg.Group,
			"consumer": cfg.Consumer,
		}),
	}
}

// Start consumes until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}
	s.log.Info("subscriber started")

	for ctx.Err() == nil {
		if s.claimDue() {
			s.reclaim(ctx)
		}
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.log.WithError(err).Error("stream read failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}

	s.log.Info("subscriber stopping")
	return ctx.Err()
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", s.cfg.Group, s.cfg.Stream, err)
	}
	return nil
}

// claimDue reports whether a reclaim pass should run now: on the first call,
// then every ClaimAfter.
func (s *Subscriber) claimDue() bool {
	now := s.now()
	if now.Before(s.nextClaim) {
		return false
	}
	s.nextClaim = now.Add(s.cfg.ClaimAfter)
	return true
}

// reclaim takes over entries that stayed pending longer than ClaimAfter,
// whether left by a dead consumer or by a failed handler.
func (s *Subscriber) reclaim(ctx context.Context) {
	start := "0-0"
	for {
		msgs, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.cfg.Stream,
			Group:    s.cfg.Group,
			Consumer: s.cfg.Consumer,
			MinIdle:  s.cfg.ClaimAfter,
			Start:    start,
			Count:    s.cfg.BatchSize,
		}).Result()
		if err != nil {
			s.log.WithError(err).Warn("could not reclaim pending entries")
			return
		}
		s.handle(ctx, msgs)
		if next == "0-0" || len(msgs) == 0 {
			return
		}
		start = next
	}
}

func (s *Subscriber) poll(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, stream := range streams {
		s.handle(ctx, stream.Messages)
	}
	return nil
}

// handle acks each entry its handler accepted. Failed entries stay pending
// and are retried by a later reclaim pass.
func (s *Subscriber) handle(ctx context.Context, msgs []redis.XMessage) {
	for _, msg := range msgs {
		log := s.log.WithField("entry", msg.ID)

		event, err := DecodeMessage(msg.Values)
		if err == nil {
			err = s.cfg.Handler(ctx, event)
		}
		if err != nil {
			log.WithError(err).Warn("event not handled")
			continue
		}
		if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, msg.ID).Err(); err != nil {
			log.WithError(err).Warn("ack failed")
		}
	}
}

// DecodeMessage extracts the Event stored in a stream entry.
func DecodeMessage(values map[string]any) (Event, error) {
	var event Event
	raw, ok := values[fieldEvent].(string)
	if !ok {
		return event, fmt.Errorf("stream entry has no %q field", fieldEvent)
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}
