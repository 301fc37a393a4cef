package common

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	// ContentExchange fans every content.changed message out to all running instances.
	ContentExchange   Exchange   = "content_exchange"
	ContentChangedKey BindingKey = "content.changed"

	CommentExchange     Exchange   = "comment_exchange"
	CommentCreatedQueue Queue      = "comment_created_queue"
	CommentCreatedKey   BindingKey = "comment.created"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	err = mb.conn.Close()
	if err != nil {
		return err
	}

	return nil
}

// SetupContentExchange declares the fanout exchange and an exclusive, server-named queue for
// this process. The returned queue name is what the caller consumes from.
func SetupContentExchange(mb *MessageBroker) (Queue, error) {
	err := mb.ch.ExchangeDeclare(string(ContentExchange), "fanout", true, false, false, false, nil)
	if err != nil {
		return "", err
	}

	q, err := mb.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", err
	}

	err = mb.ch.QueueBind(q.Name, string(ContentChangedKey), string(ContentExchange), false, nil)
	if err != nil {
		return "", err
	}

	return Queue(q.Name), nil
}

func SetupCommentExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(CommentExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = mb.ch.QueueDeclare(string(CommentCreatedQueue), true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = mb.ch.QueueBind(string(CommentCreatedQueue), string(CommentCreatedKey), string(CommentExchange), false, nil)
	if err != nil {
		return err
	}

	return nil
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}

// PublishJSON marshals v and publishes it. A nil producer is a no-op.
func PublishJSON(ctx context.Context, mb MessageProducer, v any, key BindingKey, exchange Exchange) error {
	if mb == nil {
		return nil
	}

	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return mb.Publish(ctx, msg, key, exchange)
}
