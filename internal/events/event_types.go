package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventNewsSaved      EventType = "news_saved"
	EventNewsDeleted    EventType = "news_deleted"
	EventCommentAdded   EventType = "comment_added"
	EventCommentEdited  EventType = "comment_edited"
	EventCommentToggled EventType = "comment_toggled"
	EventCommentDeleted EventType = "comment_deleted"
	EventUserRegistered EventType = "user_registered"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
)

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actorID *string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewsSavedPayload payload.
type NewsSavedPayload struct {
	Title       string `json:"title"`
	GroupID     string `json:"group_id"`
	Published   bool   `json:"published"`
	Created     bool   `json:"created"`
	ContentRef  string `json:"content_ref,omitempty"`
	ReplacedRef string `json:"replaced_ref,omitempty"` // body superseded by this save
}

// NewsDeletedPayload payload.
type NewsDeletedPayload struct {
	ContentRef      string `json:"content_ref,omitempty"`
	CommentsRemoved int64  `json:"comments_removed"`
}

// CommentPayload is shared by the comment events.
type CommentPayload struct {
	NewsID string `json:"news_id"`
	Active bool   `json:"active"`
}

// UserPayload is shared by the account events.
type UserPayload struct {
	Email  string `json:"email"`
	Active bool   `json:"active"`
	Author bool   `json:"author"`
}
