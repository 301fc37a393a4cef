package common

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockProducer records published messages. It satisfies MessageProducer.
type MockProducer struct {
	mock.Mock
	mu       sync.Mutex
	messages []PublishedMessage
}

type PublishedMessage struct {
	Key      BindingKey
	Exchange Exchange
	Body     []byte
}

func (m *MockProducer) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	m.mu.Lock()
	m.messages = append(m.messages, PublishedMessage{Key: key, Exchange: exchange, Body: msg})
	m.mu.Unlock()

	if len(m.ExpectedCalls) == 0 {
		return nil
	}

	args := m.Called(key, exchange)
	return args.Error(0)
}

// Messages returns the messages published under key.
func (m *MockProducer) Messages(key BindingKey) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PublishedMessage
	for _, msg := range m.messages {
		if msg.Key == key {
			out = append(out, msg)
		}
	}

	return out
}

// Decode unmarshals the body of msg into v.
func (msg PublishedMessage) Decode(v any) error {
	return json.Unmarshal(msg.Body, v)
}
