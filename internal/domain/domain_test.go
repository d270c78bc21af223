package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePageSize(t *testing.T) {
	cases := map[int]int{
		-5: 3, 0: 3, 1: 3, 2: 3, 3: 3,
		4: 6, 5: 6, 6: 6,
		7: 9, 8: 9, 9: 9, 10: 9, 1000: 9,
	}
	for requested, want := range cases {
		assert.Equal(t, want, NormalizePageSize(requested), "requested %d", requested)
	}
}

func TestPageTotalPages(t *testing.T) {
	p := Page[int]{Size: 3, Total: 7}
	assert.Equal(t, 3, p.TotalPages())

	p = Page[int]{Size: 9, Total: 0}
	assert.Equal(t, 0, p.TotalPages())

	p = Page[int]{Size: 6, Total: 6}
	assert.Equal(t, 1, p.TotalPages())
}

func TestNewsVisibleTo(t *testing.T) {
	publisher := "u-1"
	draft := &News{PublisherID: &publisher}

	assert.False(t, draft.VisibleTo(nil))
	assert.False(t, draft.VisibleTo(&User{ID: "u-2", Role: RoleUser}))
	assert.True(t, draft.VisibleTo(&User{ID: "u-1", Role: RoleUser}))
	assert.True(t, draft.VisibleTo(&User{ID: "u-3", Role: RoleAdmin}))

	published := &News{Published: true}
	assert.True(t, published.VisibleTo(nil))
}

func TestCommentEditableBy(t *testing.T) {
	c := &Comment{Author: User{ID: "u-1"}}

	assert.True(t, c.EditableBy(&User{ID: "u-1"}))
	assert.False(t, c.EditableBy(&User{ID: "u-2"}))
	assert.False(t, c.EditableBy(nil))
	assert.False(t, (&Comment{}).EditableBy(&User{}))
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{Name: "Ada", Surname: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{Name: "Ada"}).FullName())
}
