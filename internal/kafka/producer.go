package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrProducerClosed = errors.New("producer closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from one goroutine.
// Every message names its own topic.
type Producer struct {
	w       messageWriter
	log     *zap.Logger
	inbox   chan kafka.Message
	stop    chan struct{}
	once    sync.Once
	closeCh chan struct{}

	// mu is held shared by Publish while it may send to inbox. The loop
	// takes it exclusively before its final drain, so no send can land
	// after the drain.
	mu     sync.RWMutex
	sealed bool
}

func NewProducer(brokers []string, buf int, log *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{
		w:       w,
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		stop:    make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until ctx is done or Close is called, then
// flushes what is still buffered.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.seal()
				p.shutdown()
				return
			case <-p.stop:
				p.seal()
				p.shutdown()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// seal wakes blocked publishers and waits for the ones in flight.
func (p *Producer) seal() {
	p.Close()
	p.mu.Lock()
	p.sealed = true
	p.mu.Unlock()
}

func (p *Producer) shutdown() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Warn("kafka writer close", zap.Error(err))
			}
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("kafka write failed",
			zap.String("topic", m.Topic),
			zap.ByteString("key", m.Key),
			zap.Error(err))
	}
}

// Publish queues a message. It blocks while the buffer is full.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.sealed {
		return ErrProducerClosed
	}
	m := kafka.Message{Topic: topic, Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- m:
		return nil
	case <-p.stop:
		return ErrProducerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close asks the loop to flush and exit. Safe to call more than once.
func (p *Producer) Close() { p.once.Do(func() { close(p.stop) }) }

// WaitClosed blocks until the loop has flushed and closed the writer.
func (p *Producer) WaitClosed() { <-p.closeCh }
