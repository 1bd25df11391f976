// README: Transactional outbox for messages bound to the partner system.
package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// Topics published to the partner exchange.
const (
	TopicEstimateCreated = "estimate.created"
)

type Message struct {
	ID        int64
	Topic     string
	Payload   []byte
	Attempts  int
	LastError *string
	CreatedAt time.Time
	SentAt    *time.Time
}

// NewMessage encodes v as the JSON payload for topic.
func NewMessage(topic string, v any) (Message, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("outbox.NewMessage: %w", err)
	}
	return Message{Topic: topic, Payload: body, CreatedAt: time.Now()}, nil
}
