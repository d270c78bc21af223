package auth

import (
	"fmt"

	"github.com/spec-kit/news-portal/internal/domain"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// Action names a mutation guarded by Authorize.
type Action string

const (
	ActionSaveNews           Action = "news:save"
	ActionDeleteNews         Action = "news:delete"
	ActionAddComment         Action = "comment:add"
	ActionEditComment        Action = "comment:edit"
	ActionToggleComment      Action = "comment:toggle"
	ActionDeleteComment      Action = "comment:delete"
	ActionUpdateProfile      Action = "account:update-profile"
	ActionUpdateAccountFlags Action = "account:update-flags"
	ActionDeleteAccount      Action = "account:delete"
	ActionListAccounts       Action = "account:list"
)

// Target describes the entity an action applies to. Fields an action does
// not look at may be left zero.
type Target struct {
	// OwnerID is the account itself for account actions. Empty skips
	// ownership checks.
	OwnerID string

	// Comment is the comment being edited.
	Comment *domain.Comment

	// Author reports whether the target account carries the author flag.
	Author bool

	// Deactivate reports whether the change clears the target's active flag.
	Deactivate bool
}

// Authorize decides whether actor may perform action on target. A nil or
// inactive actor is unauthenticated. The returned error is a DomainError.
func Authorize(actor *domain.User, action Action, target Target) error {
	if actor == nil || !actor.Active {
		return apperrors.NewUnauthorized("authentication required")
	}

	switch action {
	case ActionAddComment:
		return nil
	case ActionSaveNews:
		if actor.IsAdmin() || actor.Author {
			return nil
		}
		return apperrors.NewForbidden("only authors and administrators may publish news")
	case ActionEditComment:
		if actor.IsAdmin() || (target.Comment != nil && target.Comment.EditableBy(actor)) {
			return nil
		}
		return apperrors.NewForbidden("only the comment author or an administrator may edit it")
	case ActionUpdateProfile:
		if target.OwnerID == actor.ID {
			return nil
		}
		return apperrors.NewForbidden("profiles can only be changed by their owner")
	case ActionDeleteNews, ActionToggleComment, ActionDeleteComment, ActionListAccounts:
		return requireAdmin(actor)
	case ActionUpdateAccountFlags:
		if err := requireAdmin(actor); err != nil {
			return err
		}
		if target.OwnerID == actor.ID && target.Deactivate {
			return apperrors.NewRuleViolation(apperrors.CodeSelfLockout, "administrators cannot deactivate their own account")
		}
		return nil
	case ActionDeleteAccount:
		if err := requireAdmin(actor); err != nil {
			return err
		}
		if target.OwnerID == "" {
			return nil
		}
		if target.OwnerID == actor.ID {
			return apperrors.NewRuleViolation(apperrors.CodeSelfDeletion, "administrators cannot delete their own account")
		}
		if target.Author {
			return apperrors.NewRuleViolation(apperrors.CodeAuthorDeletion, "accounts flagged as authors cannot be deleted")
		}
		return nil
	default:
		return apperrors.NewInternalError(fmt.Errorf("unknown action %q", action))
	}
}

func requireAdmin(actor *domain.User) error {
	if actor.IsAdmin() {
		return nil
	}
	return apperrors.NewForbidden("administrator role required")
}
