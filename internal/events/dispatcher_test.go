package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string

	d.Subscribe(EventNewsDeleted, func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+e.SubjectID)
		return errors.New("first failed")
	})
	d.Subscribe(EventNewsDeleted, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.SubjectID)
		return nil
	})
	d.Subscribe(EventNewsSaved, func(_ context.Context, e Event) error {
		calls = append(calls, "saved")
		return nil
	})

	err := d.Publish(context.Background(), New(EventNewsDeleted, "n1", nil, NewsDeletedPayload{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	assert.Equal(t, []string{"first:n1", "second:n1"}, calls)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventUserDeleted, "u1", nil, nil)))
}

func TestNewStampsEvent(t *testing.T) {
	actor := "admin"
	e := New(EventCommentAdded, "c1", &actor, CommentPayload{NewsID: "n1", Active: true})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, EventCommentAdded, e.Type)
	assert.Equal(t, "c1", e.SubjectID)
	assert.Equal(t, &actor, e.ActorID)
	assert.False(t, e.Timestamp.IsZero())
}
