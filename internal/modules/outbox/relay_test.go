package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	pending []Message
	sent    []int64
	failed  []int64
}

func (f *fakeSource) Process(ctx context.Context, limit int, fn func(context.Context, Message) error) (BatchResult, error) {
	var res BatchResult
	var remaining []Message
	for i, m := range f.pending {
		if i >= limit {
			remaining = append(remaining, m)
			continue
		}
		if err := fn(ctx, m); err != nil {
			res.Failed++
			f.failed = append(f.failed, m.ID)
			m.Attempts++
			remaining = append(remaining, m)
			continue
		}
		res.Sent++
		f.sent = append(f.sent, m.ID)
	}
	f.pending = remaining
	return res, nil
}

type fakePublisher struct {
	failKeys map[string]bool
	got      []string
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, _ []byte, messageID string) error {
	if p.failKeys[routingKey] {
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, routingKey+"#"+messageID)
	return nil
}

func TestRelay_RunOnceKeepsFailedMessagesPending(t *testing.T) {
	src := &fakeSource{pending: []Message{
		{ID: 1, Topic: TopicEstimateCreated, Payload: []byte(`{}`)},
		{ID: 2, Topic: "estimate.broken", Payload: []byte(`{}`)},
		{ID: 3, Topic: TopicEstimateCreated, Payload: []byte(`{}`)},
	}}
	pub := &fakePublisher{failKeys: map[string]bool{"estimate.broken": true}}
	r := NewRelay(src, pub, nil)

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Sent: 2, Failed: 1}, res)
	assert.Equal(t, []string{"estimate.created#1", "estimate.created#3"}, pub.got)
	require.Len(t, src.pending, 1)
	assert.Equal(t, int64(2), src.pending[0].ID)

	delete(pub.failKeys, "estimate.broken")
	res, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Sent: 1}, res)
	assert.Empty(t, src.pending)
}

func TestNewMessage(t *testing.T) {
	m, err := NewMessage(TopicEstimateCreated, map[string]string{"estimate_id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, TopicEstimateCreated, m.Topic)
	assert.JSONEq(t, `{"estimate_id":"abc"}`, string(m.Payload))
	assert.False(t, m.CreatedAt.IsZero())
}
