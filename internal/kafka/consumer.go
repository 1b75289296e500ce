package kafka

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the message was processed and its
// offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const maxBackoff = 10 * time.Second

type Consumer struct {
	r       messageReader
	workers int
	backoff time.Duration
	log     *zap.Logger
}

func NewConsumer(brokers []string, group string, topics []string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{r: r, workers: workers, backoff: 200 * time.Millisecond, log: log}
}

// Start fetches until ctx is done. Messages of one partition always go to
// the same worker and are handled in offset order. A failed message is
// retried with backoff until it succeeds or ctx is done, and nothing after
// it on that partition is committed before it is.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 64)
		wg.Add(1)
		go func(id int, jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if !c.handle(ctx, id, h, m) {
					return
				}
			}
		}(i, lanes[i])
	}
	defer wg.Wait()
	defer func() {
		for _, l := range lanes {
			close(l)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case lanes[c.lane(m)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) lane(m kafka.Message) int {
	h := fnv.New32a()
	h.Write([]byte(m.Topic))
	return int((h.Sum32() + uint32(m.Partition)) % uint32(c.workers))
}

// handle returns false once ctx is done, leaving m uncommitted.
func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message) bool {
	log := c.log.With(
		zap.Int("worker", worker),
		zap.String("topic", m.Topic),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset))

	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return false
		}
		log.Error("handler failed", zap.Int("attempt", attempt), zap.Duration("retry_in", wait), zap.Error(err))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return false
		}
		if wait *= 2; wait > maxBackoff {
			wait = maxBackoff
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Warn("commit failed", zap.Error(err))
	}
	return true
}
