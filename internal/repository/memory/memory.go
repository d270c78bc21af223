// Package memory is an in-memory repository.UnitOfWork. Transactions are
// serialized and a failed Do restores the state it started from, so tests
// observe the same commit/rollback behavior as Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/repository"
)

type storedComment struct {
	comment domain.Comment
	seq     int64
}

type state struct {
	users    map[string]domain.User
	groups   map[string]domain.NewsGroup
	news     map[string]domain.News
	authors  map[string][]string
	comments map[string]storedComment
	seq      int64
}

func newState() *state {
	return &state{
		users:    map[string]domain.User{},
		groups:   map[string]domain.NewsGroup{},
		news:     map[string]domain.News{},
		authors:  map[string][]string{},
		comments: map[string]storedComment{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.groups {
		c.groups[k] = v
	}
	for k, v := range s.news {
		c.news[k] = v
	}
	for k, v := range s.authors {
		c.authors[k] = append([]string(nil), v...)
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	c.seq = s.seq
	return c
}

// Store holds the in-memory tables.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
}

var _ repository.UnitOfWork = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// SeedGroups inserts news groups and returns them in the given order.
func (s *Store) SeedGroups(titles ...string) []domain.NewsGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.NewsGroup, 0, len(titles))
	for _, title := range titles {
		g := domain.NewsGroup{ID: uuid.NewString(), Title: title}
		s.st.groups[g.ID] = g
		out = append(out, g)
	}
	return out
}

// Repos returns repositories that read and write the live state.
func (s *Store) Repos() repository.Repositories {
	return repository.Repositories{
		News:     &newsRepo{s},
		Groups:   &groupRepo{s},
		Comments: &commentRepo{s},
		Users:    &userRepo{s},
	}
}

// Do runs fn serialized with other transactions and restores the previous
// state when fn fails or panics.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	backup := s.st.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(backup)
			panic(p)
		}
		if err != nil {
			s.restore(backup)
		}
	}()
	return fn(ctx, s.Repos())
}

// Snapshot runs fn serialized with transactions.
func (s *Store) Snapshot(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, s.Repos())
}

func (s *Store) restore(backup *state) {
	s.mu.Lock()
	s.st = backup
	s.mu.Unlock()
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	r.s.st.users[user.ID] = *user
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.st.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *user
	updated.Email = existing.Email
	updated.RegisteredAt = existing.RegisteredAt
	r.s.st.users[user.ID] = updated
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *userRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.st.users, id)
	for cid, c := range r.s.st.comments {
		if c.comment.Author.ID == id {
			delete(r.s.st.comments, cid)
		}
	}
	for nid, n := range r.s.st.news {
		if n.PublisherID != nil && *n.PublisherID == id {
			n.PublisherID = nil
			r.s.st.news[nid] = n
		}
	}
	for nid, ids := range r.s.st.authors {
		r.s.st.authors[nid] = without(ids, id)
	}
	return nil
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.User
	for _, u := range r.s.st.users {
		if filter.AuthorsOnly && !u.Author {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Surname != out[j].Surname {
			return out[i].Surname < out[j].Surname
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

type groupRepo struct{ s *Store }

func (r *groupRepo) List(_ context.Context) ([]domain.NewsGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.NewsGroup, 0, len(r.s.st.groups))
	for _, g := range r.s.st.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *groupRepo) GetByID(_ context.Context, id string) (*domain.NewsGroup, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.st.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &g, nil
}

type newsRepo struct{ s *Store }

func (r *newsRepo) Create(_ context.Context, news *domain.News) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.groups[news.Group.ID]; !ok {
		return &foreignKeyError{table: "news_groups"}
	}
	news.ID = uuid.NewString()
	stored := *news
	stored.Body = ""
	stored.Authors = nil
	r.s.st.news[news.ID] = stored
	return nil
}

func (r *newsRepo) Update(_ context.Context, news *domain.News) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.st.news[news.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if _, ok := r.s.st.groups[news.Group.ID]; !ok {
		return &foreignKeyError{table: "news_groups"}
	}
	existing.Title = news.Title
	existing.ContentRef = news.ContentRef
	existing.Group = domain.NewsGroup{ID: news.Group.ID}
	existing.Published = news.Published
	existing.UpdatedAt = news.UpdatedAt
	r.s.st.news[news.ID] = existing
	return nil
}

func (r *newsRepo) GetByID(_ context.Context, id string) (*domain.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.st.news[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := r.hydrate(n)
	return &out, nil
}

func (r *newsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.news[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, c := range r.s.st.comments {
		if c.comment.NewsID == id {
			return &foreignKeyError{table: "comments"}
		}
	}
	delete(r.s.st.news, id)
	delete(r.s.st.authors, id)
	return nil
}

func (r *newsRepo) Count(ctx context.Context, filter repository.NewsFilter) (int64, error) {
	filter.Limit, filter.Offset = 0, 0
	items, err := r.List(ctx, filter)
	return int64(len(items)), err
}

func (r *newsRepo) List(_ context.Context, filter repository.NewsFilter) ([]domain.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.News
	for _, n := range r.s.st.news {
		if filter.GroupID != nil && n.Group.ID != *filter.GroupID {
			continue
		}
		if filter.OnlyPublished && !n.Published {
			continue
		}
		out = append(out, r.hydrate(n))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.News{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *newsRepo) ReplaceAuthors(_ context.Context, newsID string, userIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, id := range userIDs {
		if _, ok := r.s.st.users[id]; !ok {
			return &foreignKeyError{table: "users"}
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	r.s.st.authors[newsID] = ids
	return nil
}

func (r *newsRepo) ListAuthors(_ context.Context, newsIDs []string) (map[string][]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string][]domain.User, len(newsIDs))
	for _, id := range newsIDs {
		out[id] = r.authorsOf(id)
	}
	return out, nil
}

// hydrate joins group title and authors; callers hold the read lock.
func (r *newsRepo) hydrate(n domain.News) domain.News {
	n.Group = r.s.st.groups[n.Group.ID]
	n.Authors = r.authorsOf(n.ID)
	return n
}

func (r *newsRepo) authorsOf(newsID string) []domain.User {
	var users []domain.User
	for _, uid := range r.s.st.authors[newsID] {
		if u, ok := r.s.st.users[uid]; ok {
			users = append(users, u)
		}
	}
	return users
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.news[comment.NewsID]; !ok {
		return &foreignKeyError{table: "news"}
	}
	if _, ok := r.s.st.users[comment.Author.ID]; !ok {
		return &foreignKeyError{table: "users"}
	}
	r.s.st.seq++
	comment.ID = uuid.NewString()
	stored := *comment
	stored.Author = domain.User{ID: comment.Author.ID}
	r.s.st.comments[comment.ID] = storedComment{comment: stored, seq: r.s.st.seq}
	return nil
}

func (r *commentRepo) Update(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.st.comments[comment.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.comment.Text = comment.Text
	stored.comment.Active = comment.Active
	r.s.st.comments[comment.ID] = stored
	return nil
}

func (r *commentRepo) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored, ok := r.s.st.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := r.withAuthor(stored.comment)
	return &c, nil
}

func (r *commentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.st.comments, id)
	return nil
}

func (r *commentRepo) DeleteByNews(_ context.Context, newsID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.st.comments {
		if c.comment.NewsID == newsID {
			delete(r.s.st.comments, id)
			n++
		}
	}
	return n, nil
}

func (r *commentRepo) ListByNews(_ context.Context, newsID string, includeInactive bool) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var stored []storedComment
	for _, c := range r.s.st.comments {
		if c.comment.NewsID != newsID || (!includeInactive && !c.comment.Active) {
			continue
		}
		stored = append(stored, c)
	}
	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.comment.CreatedAt.Equal(b.comment.CreatedAt) {
			return a.comment.CreatedAt.Before(b.comment.CreatedAt)
		}
		return a.seq < b.seq
	})
	out := make([]domain.Comment, 0, len(stored))
	for _, c := range stored {
		out = append(out, r.withAuthor(c.comment))
	}
	return out, nil
}

func (r *commentRepo) withAuthor(c domain.Comment) domain.Comment {
	if u, ok := r.s.st.users[c.Author.ID]; ok {
		c.Author = u
		c.Author.PasswordHash = ""
	}
	return c
}

type foreignKeyError struct {
	table string
}

func (e *foreignKeyError) Error() string {
	return "memory: foreign key violation on " + e.table
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
