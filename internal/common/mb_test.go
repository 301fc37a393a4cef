package common

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBroker_ContentChangedFanout(t *testing.T) {
	uri := TestRabbitMQ(t)

	mb, err := NewMessageBroker(uri)
	require.NoError(t, err)
	t.Cleanup(func() { mb.Close() })

	queue, err := SetupContentExchange(mb)
	require.NoError(t, err)
	assert.NotEmpty(t, queue)

	msgs, err := mb.Consume(ContentChangedKey, ContentExchange, queue)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev := ContentChanged{Resource: ResourcePost, ID: uuid.New(), PostSlug: "hello-world"}
	NotifyContentChanged(ctx, mb, nil, ev)

	select {
	case msg := <-msgs:
		got := PublishedMessage{Body: msg.Body}
		var decoded ContentChanged
		require.NoError(t, got.Decode(&decoded))
		assert.Equal(t, ev, decoded)
		assert.NoError(t, msg.Ack(false))
	case <-ctx.Done():
		t.Fatal("timed out waiting for content.changed")
	}
}

func TestPublishJSON_NilProducer(t *testing.T) {
	err := PublishJSON(context.Background(), nil, ContentChanged{Resource: ResourceTag}, ContentChangedKey, ContentExchange)
	assert.NoError(t, err)
}

func TestNotifyContentChanged_Mock(t *testing.T) {
	mp := new(MockProducer)
	id := uuid.New()

	NotifyContentChanged(context.Background(), mp, nil, ContentChanged{Resource: ResourceComment, ID: id})

	msgs := mp.Messages(ContentChangedKey)
	require.Len(t, msgs, 1)
	assert.Equal(t, ContentExchange, msgs[0].Exchange)

	var ev ContentChanged
	require.NoError(t, msgs[0].Decode(&ev))
	assert.Equal(t, ResourceComment, ev.Resource)
	assert.Equal(t, id, ev.ID)
}
