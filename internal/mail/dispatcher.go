package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Dispatcher queues messages and delivers them on a background goroutine.
// Dispatch never blocks and never reports delivery failure to the caller;
// a full queue drops the message with a log entry.
type Dispatcher struct {
	mailer Mailer
	queue  chan Message
	logger zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher creates a Dispatcher with the given queue capacity and
// starts its delivery worker.
func NewDispatcher(mailer Mailer, queueSize int, logger zerolog.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		mailer: mailer,
		queue:  make(chan Message, queueSize),
		logger: logger.With().Str("component", "mail_dispatcher").Logger(),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues a message for delivery. Fire-and-forget: when the queue
// is full the message is dropped.
func (d *Dispatcher) Dispatch(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn().Str("to", msg.To).Msg("mail queue full, message dropped")
	}
}

// Close stops accepting messages, delivers what is already queued, and
// waits for the worker to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		if err := d.mailer.Send(context.Background(), msg); err != nil {
			d.logger.Error().Err(err).Str("to", msg.To).Msg("mail delivery failed")
			continue
		}
		d.logger.Debug().Str("to", msg.To).Msg("mail dispatched")
	}
}

// Notifier is the narrow interface the service layer depends on.
type Notifier interface {
	Dispatch(msg Message)
}

// NopNotifier discards every message. Used when notifications are disabled.
type NopNotifier struct{}

// Dispatch discards the message.
func (NopNotifier) Dispatch(Message) {}
