package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/repository"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// CommentService is the comment ledger for news items.
type CommentService struct {
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	return &CommentService{
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        time.Now,
	}
}

// Add attaches a comment to a news item. It returns nil without error when
// the actor or the news item cannot be resolved.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, newsID, text string) (*domain.Comment, error) {
	if actor == nil || !actor.Active || !validID(newsID) {
		return nil, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text is required", map[string]any{"field": "text"})
	}
	if err := auth.Authorize(actor, auth.ActionAddComment, auth.Target{}); err != nil {
		return nil, err
	}

	var created *domain.Comment
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		visible, err := newsVisible(ctx, repos, newsID, actor)
		if err != nil || !visible {
			return err
		}
		author, err := repos.Users.GetByID(ctx, actor.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		comment := &domain.Comment{
			NewsID:    newsID,
			Author:    *author,
			Text:      text,
			Active:    true,
			CreatedAt: s.now().UTC(),
		}
		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		comment.Author.PasswordHash = ""
		created = comment
		return nil
	})
	if err != nil || created == nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventCommentAdded, created.ID, actorID(actor), events.CommentPayload{
		NewsID: created.NewsID,
		Active: created.Active,
	}))
	return created, nil
}

// Edit replaces the comment text when the actor wrote it or is an
// administrator. Otherwise nothing changes and applied is false. A comment
// on news the actor cannot see is reported as absent.
func (s *CommentService) Edit(ctx context.Context, actor *domain.User, commentID, text string) (*domain.Comment, bool, error) {
	if !validID(commentID) {
		return nil, false, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false, apperrors.NewValidationError("comment text is required", map[string]any{"field": "text"})
	}

	var (
		comment *domain.Comment
		applied bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Comments.GetByID(ctx, commentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		visible, err := newsVisible(ctx, repos, current.NewsID, actor)
		if err != nil || !visible {
			return err
		}
		comment = current
		if auth.Authorize(actor, auth.ActionEditComment, auth.Target{Comment: current}) != nil {
			return nil
		}
		current.Text = text
		if err := repos.Comments.Update(ctx, current); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if comment != nil {
		comment.Author.PasswordHash = ""
	}
	if applied {
		publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventCommentEdited, comment.ID, actorID(actor), events.CommentPayload{
			NewsID: comment.NewsID,
			Active: comment.Active,
		}))
	}
	return comment, applied, nil
}

// ToggleActive flips the moderation flag. Administrators only.
func (s *CommentService) ToggleActive(ctx context.Context, actor *domain.User, commentID string) (*domain.Comment, error) {
	if err := auth.Authorize(actor, auth.ActionToggleComment, auth.Target{}); err != nil {
		return nil, err
	}
	if !validID(commentID) {
		return nil, nil
	}

	var comment *domain.Comment
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Comments.GetByID(ctx, commentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		current.Active = !current.Active
		if err := repos.Comments.Update(ctx, current); err != nil {
			return err
		}
		comment = current
		return nil
	})
	if err != nil || comment == nil {
		return nil, err
	}
	comment.Author.PasswordHash = ""

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventCommentToggled, comment.ID, actorID(actor), events.CommentPayload{
		NewsID: comment.NewsID,
		Active: comment.Active,
	}))
	return comment, nil
}

// Delete hard-deletes a comment. Administrators only. It reports false when
// the comment does not exist.
func (s *CommentService) Delete(ctx context.Context, actor *domain.User, commentID string) (bool, error) {
	if err := auth.Authorize(actor, auth.ActionDeleteComment, auth.Target{}); err != nil {
		return false, err
	}
	if !validID(commentID) {
		return false, nil
	}

	var deleted *domain.Comment
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Comments.GetByID(ctx, commentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := repos.Comments.Delete(ctx, commentID); err != nil {
			return err
		}
		deleted = current
		return nil
	})
	if err != nil || deleted == nil {
		return false, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventCommentDeleted, deleted.ID, actorID(actor), events.CommentPayload{
		NewsID: deleted.NewsID,
		Active: deleted.Active,
	}))
	return true, nil
}

// ListForNews returns the thread oldest first. Inactive comments are only
// included for administrators. News the viewer cannot see has an empty thread.
func (s *CommentService) ListForNews(ctx context.Context, viewer *domain.User, newsID string) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	if !validID(newsID) {
		return comments, nil
	}
	err := s.uow.Snapshot(ctx, func(ctx context.Context, repos repository.Repositories) error {
		visible, err := newsVisible(ctx, repos, newsID, viewer)
		if err != nil || !visible {
			return err
		}
		found, err := repos.Comments.ListByNews(ctx, newsID, viewer.IsAdmin())
		if err != nil {
			return err
		}
		if found != nil {
			comments = found
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Author.PasswordHash = ""
	}
	return comments, nil
}

// newsVisible reports whether the news item exists and viewer may see it.
func newsVisible(ctx context.Context, repos repository.Repositories, newsID string, viewer *domain.User) (bool, error) {
	news, err := repos.News.GetByID(ctx, newsID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return news.VisibleTo(viewer), nil
}
