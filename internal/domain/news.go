package domain

import "time"

// NewsGroup is immutable reference data grouping news.
type NewsGroup struct {
	ID    string
	Title string
}

// News is an article. Body is never persisted on the record; the row only
// carries ContentRef, and Body is filled in from the content store on read.
type News struct {
	ID          string
	Title       string
	ContentRef  string
	Body        string
	Group       NewsGroup
	Authors     []User
	PublisherID *string
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VisibleTo reports whether the viewer may see the item.
func (n *News) VisibleTo(viewer *User) bool {
	if n.Published || viewer.IsAdmin() {
		return true
	}
	return viewer != nil && n.PublisherID != nil && *n.PublisherID == viewer.ID
}

// AuthorIDs returns the ids of credited authors.
func (n *News) AuthorIDs() []string {
	ids := make([]string, 0, len(n.Authors))
	for _, a := range n.Authors {
		ids = append(ids, a.ID)
	}
	return ids
}
