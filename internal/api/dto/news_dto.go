package dto

import (
	"time"

	"github.com/spec-kit/news-portal/internal/domain"
)

// NewsRequest payload for creating or updating news.
type NewsRequest struct {
	Title     string   `json:"title" validate:"required,max=255"`
	Body      *string  `json:"body"`
	GroupID   string   `json:"group_id" validate:"required,uuid"`
	AuthorIDs []string `json:"author_ids" validate:"omitempty,dive,uuid"`
	Published bool     `json:"published"`
}

// GroupResponse view.
type GroupResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewsResponse view.
type NewsResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Group       GroupResponse    `json:"group"`
	Authors     []AuthorResponse `json:"authors"`
	PublisherID *string          `json:"publisher_id,omitempty"`
	Published   bool             `json:"published"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewsPageResponse is one page of the listing.
type NewsPageResponse struct {
	Items      []NewsResponse `json:"items"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// NewNewsResponse converts a domain news item.
func NewNewsResponse(n *domain.News) NewsResponse {
	authors := make([]AuthorResponse, 0, len(n.Authors))
	for _, a := range n.Authors {
		authors = append(authors, newAuthorResponse(a))
	}
	return NewsResponse{
		ID:          n.ID,
		Title:       n.Title,
		Body:        n.Body,
		Group:       NewGroupResponse(n.Group),
		Authors:     authors,
		PublisherID: n.PublisherID,
		Published:   n.Published,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// NewNewsPageResponse converts a page of news.
func NewNewsPageResponse(p *domain.Page[domain.News]) NewsPageResponse {
	items := make([]NewsResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, NewNewsResponse(&p.Items[i]))
	}
	return NewsPageResponse{
		Items:      items,
		Page:       p.Number,
		Size:       p.Size,
		Total:      p.Total,
		TotalPages: p.TotalPages(),
	}
}

// NewGroupResponse converts a news group.
func NewGroupResponse(g domain.NewsGroup) GroupResponse {
	return GroupResponse{ID: g.ID, Title: g.Title}
}
