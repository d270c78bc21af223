package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/news-portal/internal/domain"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

func user(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Email: id + "@example.com", Role: role, Active: true}
}

func TestAuthorizeRejectsAnonymousAndInactive(t *testing.T) {
	inactive := user("u1", domain.RoleAdmin)
	inactive.Active = false

	for _, actor := range []*domain.User{nil, inactive} {
		for _, action := range []Action{ActionAddComment, ActionSaveNews, ActionDeleteAccount, ActionToggleComment} {
			err := Authorize(actor, action, Target{})
			assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized), "action %s", action)
		}
	}
}

func TestAuthorizeCommentActions(t *testing.T) {
	admin := user("admin", domain.RoleAdmin)
	owner := user("owner", domain.RoleUser)
	other := user("other", domain.RoleUser)
	target := Target{Comment: &domain.Comment{Author: *owner}}

	assert.NoError(t, Authorize(other, ActionAddComment, Target{}))

	assert.NoError(t, Authorize(owner, ActionEditComment, target))
	assert.NoError(t, Authorize(admin, ActionEditComment, target))
	assert.True(t, apperrors.HasCode(Authorize(other, ActionEditComment, target), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(Authorize(other, ActionEditComment, Target{}), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(Authorize(other, ActionEditComment, Target{OwnerID: other.ID}), apperrors.CodeForbidden),
		"edit ownership comes from the comment, not OwnerID")

	for _, action := range []Action{ActionToggleComment, ActionDeleteComment} {
		assert.NoError(t, Authorize(admin, action, target))
		assert.True(t, apperrors.HasCode(Authorize(owner, action, target), apperrors.CodeForbidden))
	}
}

func TestAuthorizeNewsActions(t *testing.T) {
	admin := user("admin", domain.RoleAdmin)
	author := user("author", domain.RoleUser)
	author.Author = true
	reader := user("reader", domain.RoleUser)

	assert.NoError(t, Authorize(admin, ActionSaveNews, Target{}))
	assert.NoError(t, Authorize(author, ActionSaveNews, Target{}))
	assert.True(t, apperrors.HasCode(Authorize(reader, ActionSaveNews, Target{}), apperrors.CodeForbidden))

	assert.NoError(t, Authorize(admin, ActionDeleteNews, Target{}))
	assert.True(t, apperrors.HasCode(Authorize(author, ActionDeleteNews, Target{}), apperrors.CodeForbidden))
}

func TestAuthorizeAccountFlags(t *testing.T) {
	admin := user("admin", domain.RoleAdmin)
	reader := user("reader", domain.RoleUser)

	err := Authorize(admin, ActionUpdateAccountFlags, Target{OwnerID: admin.ID, Deactivate: true})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSelfLockout))

	assert.NoError(t, Authorize(admin, ActionUpdateAccountFlags, Target{OwnerID: admin.ID}))
	assert.NoError(t, Authorize(admin, ActionUpdateAccountFlags, Target{OwnerID: reader.ID, Deactivate: true}))
	assert.True(t, apperrors.HasCode(Authorize(reader, ActionUpdateAccountFlags, Target{OwnerID: reader.ID}), apperrors.CodeForbidden))
}

func TestAuthorizeDeleteAccountGuards(t *testing.T) {
	admin := user("admin", domain.RoleAdmin)
	reader := user("reader", domain.RoleUser)

	assert.True(t, apperrors.HasCode(Authorize(reader, ActionDeleteAccount, Target{OwnerID: "x"}), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(Authorize(admin, ActionDeleteAccount, Target{OwnerID: admin.ID}), apperrors.CodeSelfDeletion))
	assert.True(t, apperrors.HasCode(Authorize(admin, ActionDeleteAccount, Target{OwnerID: "x", Author: true}), apperrors.CodeAuthorDeletion))
	assert.NoError(t, Authorize(admin, ActionDeleteAccount, Target{OwnerID: "x"}))
	assert.NoError(t, Authorize(admin, ActionDeleteAccount, Target{}))
}

func TestAuthorizeProfileAndListing(t *testing.T) {
	admin := user("admin", domain.RoleAdmin)
	reader := user("reader", domain.RoleUser)

	assert.NoError(t, Authorize(reader, ActionUpdateProfile, Target{OwnerID: reader.ID}))
	assert.True(t, apperrors.HasCode(Authorize(admin, ActionUpdateProfile, Target{OwnerID: reader.ID}), apperrors.CodeForbidden))

	assert.NoError(t, Authorize(admin, ActionListAccounts, Target{}))
	assert.True(t, apperrors.HasCode(Authorize(reader, ActionListAccounts, Target{}), apperrors.CodeForbidden))
}

func TestAuthorizeUnknownAction(t *testing.T) {
	err := Authorize(user("admin", domain.RoleAdmin), Action("nope"), Target{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}
