package dto

import (
	"time"

	"github.com/spec-kit/news-portal/internal/domain"
)

// CommentRequest payload for adding or editing a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// CommentResponse view.
type CommentResponse struct {
	ID        string         `json:"id"`
	NewsID    string         `json:"news_id"`
	Author    AuthorResponse `json:"author"`
	Text      string         `json:"text"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}

// CommentEditResponse reports whether an edit was applied.
type CommentEditResponse struct {
	Applied bool             `json:"applied"`
	Comment *CommentResponse `json:"comment,omitempty"`
}

// NewCommentResponse converts a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		NewsID:    c.NewsID,
		Author:    newAuthorResponse(c.Author),
		Text:      c.Text,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

// NewCommentList converts a thread.
func NewCommentList(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}
