package mail

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// captureMailer records sent messages and can fail on demand.
type captureMailer struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func (m *captureMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *captureMailer) sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	mailer := &captureMailer{}
	d := NewDispatcher(mailer, 8, zerolog.Nop())

	d.Dispatch(Message{To: "a@x.com", Subject: "Welcome", Body: "hi"})
	d.Dispatch(Message{To: "b@x.com", Subject: "Goodbye", Body: "bye"})
	d.Close()

	sent := mailer.sent()
	require.Len(t, sent, 2)
	require.Equal(t, "a@x.com", sent[0].To)
	require.Equal(t, "b@x.com", sent[1].To)
}

func TestDispatcherSwallowsDeliveryFailures(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	d := NewDispatcher(mailer, 8, zerolog.Nop())

	// Dispatch must not panic, block, or surface the failure.
	d.Dispatch(Message{To: "a@x.com"})
	d.Close()
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	block := make(chan struct{})
	mailer := &blockingMailer{release: block}
	d := NewDispatcher(mailer, 1, zerolog.Nop())

	// First message occupies the worker, second fills the queue, the rest
	// must be dropped without blocking the caller.
	for i := 0; i < 10; i++ {
		d.Dispatch(Message{To: "a@x.com"})
	}

	close(block)
	d.Close()
}

type blockingMailer struct {
	release chan struct{}
}

func (m *blockingMailer) Send(ctx context.Context, msg Message) error {
	<-m.release
	return nil
}

func TestLogMailerAlwaysSucceeds(t *testing.T) {
	m := NewLogMailer(zerolog.Nop())
	require.NoError(t, m.Send(context.Background(), Message{To: "a@x.com", Subject: "s", Body: "b"}))
}
