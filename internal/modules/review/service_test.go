package review

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charter/internal/modules/estimate"
	"charter/internal/types"
)

type mockRepo struct {
	created []Review
	err     error
}

var _ Repository = (*mockRepo)(nil)

func (m *mockRepo) Exists(_ context.Context, userID, estimateID types.ID) (bool, error) {
	for _, r := range m.created {
		if r.UserID == userID && r.EstimateID == estimateID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Create(_ context.Context, r *Review) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, *r)
	return nil
}

func (m *mockRepo) List(_ context.Context, _ types.Page) ([]Review, int, error) {
	return m.created, len(m.created), nil
}

type mockEstimates struct {
	GetFn func(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error)
}

func (m *mockEstimates) Get(ctx context.Context, id, owner types.ID) (*estimate.Estimate, error) {
	return m.GetFn(ctx, id, owner)
}

type memImages struct {
	keys []string
}

func (m *memImages) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://images.test/" + key, nil
}

func finishedEstimates(owner types.ID) *mockEstimates {
	return &mockEstimates{GetFn: func(_ context.Context, id, caller types.ID) (*estimate.Estimate, error) {
		if caller != owner {
			return nil, types.ErrNotFound
		}
		return &estimate.Estimate{ID: id, OwnerID: &owner, IsFinished: true}, nil
	}}
}

func TestService_Create(t *testing.T) {
	repo := &mockRepo{}
	images := &memImages{}
	svc := NewService(repo, finishedEstimates("user-1"), images, nil)

	r, err := svc.Create(context.Background(), CreateCommand{
		UserID:     "user-1",
		EstimateID: "est-1",
		Stars:      5,
		Content:    "  Great driver  ",
		Images: []Upload{
			{Filename: "bus.jpg", ContentType: "image/jpeg", Body: strings.NewReader("jpeg")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Great driver", r.Content)
	require.Len(t, r.Images, 1)
	assert.True(t, strings.HasSuffix(r.Images[0], "/0.jpg"))
	assert.Len(t, repo.created, 1)
}

func TestService_CreateRules(t *testing.T) {
	notFinished := &mockEstimates{GetFn: func(_ context.Context, id, owner types.ID) (*estimate.Estimate, error) {
		return &estimate.Estimate{ID: id, OwnerID: &owner}, nil
	}}

	tests := []struct {
		name      string
		estimates Estimates
		cmd       CreateCommand
		want      error
	}{
		{"stars too low", finishedEstimates("user-1"), CreateCommand{UserID: "user-1", EstimateID: "e", Stars: 0}, types.ErrValidation},
		{"stars too high", finishedEstimates("user-1"), CreateCommand{UserID: "user-1", EstimateID: "e", Stars: 6}, types.ErrValidation},
		{"not the owner", finishedEstimates("user-1"), CreateCommand{UserID: "user-2", EstimateID: "e", Stars: 4}, types.ErrNotFound},
		{"trip not finished", notFinished, CreateCommand{UserID: "user-1", EstimateID: "e", Stars: 4}, types.ErrValidation},
		{"non-image upload", finishedEstimates("user-1"), CreateCommand{UserID: "user-1", EstimateID: "e", Stars: 4,
			Images: []Upload{{Filename: "a.txt", ContentType: "text/plain", Body: strings.NewReader("x")}}}, types.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockRepo{}, tt.estimates, &memImages{}, nil)
			_, err := svc.Create(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_CreateDuplicate(t *testing.T) {
	repo := &mockRepo{}
	images := &memImages{}
	svc := NewService(repo, finishedEstimates("user-1"), images, nil)
	cmd := CreateCommand{UserID: "user-1", EstimateID: "est-1", Stars: 4}

	_, err := svc.Create(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Images = []Upload{{Filename: "b.png", ContentType: "image/png", Body: strings.NewReader("png")}}
	_, err = svc.Create(context.Background(), cmd)
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.Empty(t, images.keys, "duplicate must be rejected before uploading")
}

func TestService_CreateStoreConflict(t *testing.T) {
	repo := &mockRepo{err: types.ErrConflict}
	svc := NewService(repo, finishedEstimates("user-1"), &memImages{}, nil)
	_, err := svc.Create(context.Background(), CreateCommand{UserID: "user-1", EstimateID: "e", Stars: 3})
	assert.True(t, errors.Is(err, types.ErrConflict))
}
