package domain

import "time"

// Comment belongs to a news item and its author.
type Comment struct {
	ID        string
	NewsID    string
	Author    User
	Text      string
	Active    bool
	CreatedAt time.Time
}

// EditableBy reports whether u wrote the comment.
func (c *Comment) EditableBy(u *User) bool {
	return u != nil && c.Author.ID != "" && c.Author.ID == u.ID
}
