package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// FCMSender delivers messages through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

var _ Sender = (*FCMSender)(nil)

func NewFCMSender(ctx context.Context, app *firebase.App) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) SendToToken(ctx context.Context, token string, m Message) (string, error) {
	msg := buildMessage(m)
	msg.Token = token
	return s.client.Send(ctx, msg)
}

func (s *FCMSender) SendToTopic(ctx context.Context, topic string, m Message) (string, error) {
	msg := buildMessage(m)
	msg.Topic = topic
	return s.client.Send(ctx, msg)
}

func buildMessage(m Message) *messaging.Message {
	data := map[string]string{"type": m.Kind}
	for k, v := range m.Data {
		data[k] = v
	}
	return &messaging.Message{
		Data: data,
		Notification: &messaging.Notification{
			Title: m.Title,
			Body:  m.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
}
