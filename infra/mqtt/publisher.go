package mqtt

import (
	"context"
	"sync"

	"github.com/kilianp07/ppmsim/infra/logger"
)

// Message is a payload captured by RecordingPublisher.
type Message struct {
	Topic   string
	Payload []byte
}

// RecordingPublisher keeps published payloads in memory and echoes them to a
// logger. It backs dry runs and tests.
type RecordingPublisher struct {
	mu       sync.Mutex
	messages []Message
	log      logger.Logger
}

// NewRecordingPublisher returns a publisher logging every payload to log,
// which may be nil.
func NewRecordingPublisher(log logger.Logger) *RecordingPublisher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &RecordingPublisher{log: log}
}

// Publish records the message.
func (r *RecordingPublisher) Publish(_ context.Context, topic string, payload []byte) error {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	r.mu.Unlock()
	r.log.Infof("dry-run publish %s %s", topic, payload)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *RecordingPublisher) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Disconnect is a no-op.
func (r *RecordingPublisher) Disconnect() {}
