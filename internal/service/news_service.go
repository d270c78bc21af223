package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/news-portal/internal/auth"
	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/events"
	"github.com/spec-kit/news-portal/internal/repository"
	"github.com/spec-kit/news-portal/internal/storage"
	apperrors "github.com/spec-kit/news-portal/pkg/util/errorutil"
)

// GroupCache is the read-through cache in front of the news group table.
type GroupCache interface {
	Groups(ctx context.Context) ([]domain.NewsGroup, bool, error)
	StoreGroups(ctx context.Context, groups []domain.NewsGroup) error
}

// NewsService is the news catalog: articles, their bodies and their groups.
type NewsService struct {
	uow        repository.UnitOfWork
	content    storage.ContentStore
	groups     GroupCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewsDependencies bundles collaborators for the news service.
type NewsDependencies struct {
	UnitOfWork repository.UnitOfWork
	Content    storage.ContentStore
	GroupCache GroupCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewsInput describes a create (empty ID) or an update.
type NewsInput struct {
	ID        string
	Title     string
	Body      *string // nil keeps the stored body on update
	GroupID   string
	AuthorIDs []string
	Published bool
}

// PageRequest selects one page of the news listing.
type PageRequest struct {
	Page    int
	Size    int
	GroupID string
}

// NewNewsService constructs the service.
func NewNewsService(deps NewsDependencies) *NewsService {
	return &NewsService{
		uow:        deps.UnitOfWork,
		content:    deps.Content,
		groups:     deps.GroupCache,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        time.Now,
	}
}

// Save creates or updates a news item. The body goes to the content store
// and only its reference is persisted.
func (s *NewsService) Save(ctx context.Context, actor *domain.User, input NewsInput) (*domain.News, error) {
	if err := auth.Authorize(actor, auth.ActionSaveNews, auth.Target{}); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if !validID(input.GroupID) {
		return nil, apperrors.NewValidationError("a valid news group is required", map[string]any{"field": "group_id"})
	}
	isNew := input.ID == ""
	if !isNew && !validID(input.ID) {
		return nil, apperrors.NewNotFound("news", map[string]any{"id": input.ID})
	}

	var (
		saved    domain.News
		written  string
		replaced string
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		now := s.now().UTC()
		if isNew {
			saved = domain.News{CreatedAt: now, PublisherID: actorID(actor)}
		} else {
			existing, err := repos.News.GetByID(ctx, input.ID)
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("news", map[string]any{"id": input.ID})
			}
			if err != nil {
				return err
			}
			saved = *existing
		}

		group, err := repos.Groups.GetByID(ctx, input.GroupID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown news group", map[string]any{"group_id": input.GroupID})
		}
		if err != nil {
			return err
		}
		authors, err := resolveAuthors(ctx, repos.Users, input.AuthorIDs)
		if err != nil {
			return err
		}

		saved.Title = title
		saved.Group = *group
		saved.Published = input.Published
		saved.UpdatedAt = now

		if saved.ContentRef == "" || input.Body != nil {
			body := ""
			if input.Body != nil {
				body = *input.Body
			}
			ref, err := s.content.Store(ctx, body)
			if err != nil {
				return apperrors.NewStorageFailure(err)
			}
			written = ref
			replaced = saved.ContentRef
			saved.ContentRef = ref
			saved.Body = body
		}

		if isNew {
			err = repos.News.Create(ctx, &saved)
		} else {
			err = repos.News.Update(ctx, &saved)
		}
		if err != nil {
			return err
		}
		if err := repos.News.ReplaceAuthors(ctx, saved.ID, authorIDs(authors)); err != nil {
			return err
		}
		saved.Authors = authors
		return nil
	})
	if err != nil {
		if written != "" {
			s.discardBlob(ctx, written)
		}
		return nil, err
	}

	if written == "" {
		s.hydrate(ctx, &saved)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventNewsSaved, saved.ID, actorID(actor), events.NewsSavedPayload{
		Title:       saved.Title,
		GroupID:     saved.Group.ID,
		Published:   saved.Published,
		Created:     isNew,
		ContentRef:  saved.ContentRef,
		ReplacedRef: replaced,
	}))
	return &saved, nil
}

// GetByID returns the item with its body, or nil when it does not exist or
// the viewer may not see it.
func (s *NewsService) GetByID(ctx context.Context, viewer *domain.User, id string) (*domain.News, error) {
	if !validID(id) {
		return nil, nil
	}
	news, err := s.uow.Repos().News.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !news.VisibleTo(viewer) {
		return nil, nil
	}
	if news.ContentRef != "" {
		body, err := s.content.Load(ctx, news.ContentRef)
		if err != nil {
			return nil, apperrors.NewStorageFailure(err)
		}
		news.Body = body
	}
	return news, nil
}

// GetPage lists news newest first. Administrators see unpublished items.
// A body that fails to load is logged and left empty.
func (s *NewsService) GetPage(ctx context.Context, viewer *domain.User, req PageRequest) (*domain.Page[domain.News], error) {
	size := domain.NormalizePageSize(req.Size)
	number := req.Page
	if number < 0 {
		number = 0
	}
	// keeps number*size from wrapping into a negative offset
	if maxPage := math.MaxInt / size; number > maxPage {
		number = maxPage
	}

	filter := repository.NewsFilter{
		OnlyPublished: !viewer.IsAdmin(),
		Limit:         size,
		Offset:        number * size,
	}
	if groupID := strings.TrimSpace(req.GroupID); groupID != "" {
		if !validID(groupID) {
			return nil, apperrors.NewValidationError("invalid news group", map[string]any{"group_id": groupID})
		}
		filter.GroupID = &groupID
	}

	var (
		items []domain.News
		total int64
	)
	err := s.uow.Snapshot(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if total, err = repos.News.Count(ctx, filter); err != nil {
			return err
		}
		items, err = repos.News.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i := range items {
		s.hydrate(ctx, &items[i])
	}
	if items == nil {
		items = []domain.News{}
	}
	return &domain.Page[domain.News]{Items: items, Number: number, Size: size, Total: total}, nil
}

// Delete removes the item and its comments. It reports false when the item
// does not exist. The body blob is reclaimed after commit.
func (s *NewsService) Delete(ctx context.Context, actor *domain.User, id string) (bool, error) {
	if err := auth.Authorize(actor, auth.ActionDeleteNews, auth.Target{}); err != nil {
		return false, err
	}
	if !validID(id) {
		return false, nil
	}

	var (
		found   bool
		ref     string
		removed int64
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		news, err := repos.News.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		ref = news.ContentRef

		if removed, err = repos.Comments.DeleteByNews(ctx, id); err != nil {
			return err
		}
		if err := repos.News.ReplaceAuthors(ctx, id, nil); err != nil {
			return err
		}
		return repos.News.Delete(ctx, id)
	})
	if err != nil || !found {
		return false, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventNewsDeleted, id, actorID(actor), events.NewsDeletedPayload{
		ContentRef:      ref,
		CommentsRemoved: removed,
	}))
	return true, nil
}

// ListGroups returns all news groups ordered by title.
func (s *NewsService) ListGroups(ctx context.Context) ([]domain.NewsGroup, error) {
	if s.groups != nil {
		cached, ok, err := s.groups.Groups(ctx)
		if err != nil {
			s.logger.Warn("group cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	groups, err := s.uow.Repos().Groups.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.groups != nil {
		if err := s.groups.StoreGroups(ctx, groups); err != nil {
			s.logger.Warn("group cache write failed", zap.Error(err))
		}
	}
	return groups, nil
}

// GetGroupByID returns the group or nil.
func (s *NewsService) GetGroupByID(ctx context.Context, id string) (*domain.NewsGroup, error) {
	if !validID(id) {
		return nil, nil
	}
	group, err := s.uow.Repos().Groups.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *NewsService) hydrate(ctx context.Context, news *domain.News) {
	if news.ContentRef == "" {
		return
	}
	body, err := s.content.Load(ctx, news.ContentRef)
	if err != nil {
		s.logger.Warn("news body unavailable",
			zap.String("news_id", news.ID),
			zap.String("content_ref", news.ContentRef),
			zap.Error(err))
		return
	}
	news.Body = body
}

func (s *NewsService) discardBlob(ctx context.Context, ref string) {
	if err := s.content.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Error("failed to discard uncommitted news body", zap.String("content_ref", ref), zap.Error(err))
	}
}

func resolveAuthors(ctx context.Context, users repository.UserRepository, ids []string) ([]domain.User, error) {
	seen := make(map[string]bool, len(ids))
	authors := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if !validID(id) {
			return nil, apperrors.NewValidationError("unknown author", map[string]any{"author_id": id})
		}
		u, err := users.GetByID(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown author", map[string]any{"author_id": id})
		}
		if err != nil {
			return nil, err
		}
		if !u.Author {
			return nil, apperrors.NewValidationError("user is not an author", map[string]any{"author_id": id})
		}
		u.PasswordHash = ""
		authors = append(authors, *u)
	}
	return authors, nil
}

func authorIDs(users []domain.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
