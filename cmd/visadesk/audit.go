package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/visadesk/visadesk/internal/config"
	"github.com/visadesk/visadesk/internal/logging"
	"github.com/visadesk/visadesk/shared/events"
	redisClient "github.com/visadesk/visadesk/shared/redis"
)

var auditStreams = []string{events.RecordEventsStream, events.SessionEventsStream}

func auditCmd() *cobra.Command {
	var group, consumer string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Consume the record and session streams and log every event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), group, consumer)
		},
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "audit-1"
	}
	cmd.Flags().StringVar(&group, "group", "visadesk-audit", "consumer group name")
	cmd.Flags().StringVar(&consumer, "consumer", hostname, "consumer name within the group")
	return cmd
}

func runAudit(ctx context.Context, group, consumer string) error {
	settings, err := config.LoadRedis(envFiles...)
	if err != nil {
		return err
	}
	logging.Init("info", "json")

	redis, err := redisClient.NewClient(redisClient.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})
	if err != nil {
		return err
	}
	defer redis.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		merr *multierror.Error
	)
	for _, stream := range auditStreams {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    group,
			Consumer: consumer,
			Stream:   stream,
			Handler:  logEvent(stream),
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
				stop()
			}
		}()
	}

	wg.Wait()
	return merr.ErrorOrNil()
}

// logEvent writes one structured line per event.
func logEvent(stream string) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		logrus.WithFields(logrus.Fields{
			"stream":     stream,
			"event_type": event.Type,
			"emitted_at": event.Timestamp,
			"data":       event.Data,
		}).Info("event")
		return nil
	}
}
