package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/persistence"
)

// NewsFilter selects news for counting and paging. Count and List must be
// called with the same filter for the total to match the slice.
type NewsFilter struct {
	GroupID       *string
	OnlyPublished bool
	Limit         int
	Offset        int
}

// NewsRepository encapsulates news persistence. Bodies are not stored here.
type NewsRepository interface {
	Create(ctx context.Context, news *domain.News) error
	Update(ctx context.Context, news *domain.News) error
	GetByID(ctx context.Context, id string) (*domain.News, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter NewsFilter) (int64, error)
	List(ctx context.Context, filter NewsFilter) ([]domain.News, error)
	ReplaceAuthors(ctx context.Context, newsID string, userIDs []string) error
	ListAuthors(ctx context.Context, newsIDs []string) (map[string][]domain.User, error)
}

type newsRepository struct {
	db persistence.DBTX
}

// NewNewsRepository instantiates repository.
func NewNewsRepository(db persistence.DBTX) NewsRepository {
	return &newsRepository{db: db}
}

const newsSelect = `
        SELECT n.id, n.title, COALESCE(n.content_ref, ''), n.group_id, g.title,
               n.publisher_id, n.published, n.created_at, n.updated_at
        FROM news n JOIN news_groups g ON g.id = n.group_id`

func (r *newsRepository) Create(ctx context.Context, news *domain.News) error {
	const query = `
        INSERT INTO news (title, content_ref, group_id, publisher_id, published, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		news.Title,
		nullIfEmpty(news.ContentRef),
		news.Group.ID,
		news.PublisherID,
		news.Published,
		news.CreatedAt,
		news.UpdatedAt,
	).Scan(&news.ID)
}

func (r *newsRepository) Update(ctx context.Context, news *domain.News) error {
	const query = `
        UPDATE news SET title=$1, content_ref=$2, group_id=$3, published=$4, updated_at=$5
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		news.Title,
		nullIfEmpty(news.ContentRef),
		news.Group.ID,
		news.Published,
		news.UpdatedAt,
		news.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *newsRepository) GetByID(ctx context.Context, id string) (*domain.News, error) {
	news, err := scanNews(r.db.QueryRow(ctx, newsSelect+` WHERE n.id=$1`, id))
	if err != nil {
		return nil, err
	}
	authors, err := r.ListAuthors(ctx, []string{news.ID})
	if err != nil {
		return nil, err
	}
	news.Authors = authors[news.ID]
	return news, nil
}

func (r *newsRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM news WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *newsRepository) Count(ctx context.Context, filter NewsFilter) (int64, error) {
	where, args := buildNewsFilter(filter)
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM news n`+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return total, nil
}

func (r *newsRepository) List(ctx context.Context, filter NewsFilter) ([]domain.News, error) {
	where, args := buildNewsFilter(filter)
	query := newsSelect + where + ` ORDER BY n.created_at DESC, n.id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()

	var result []domain.News
	for rows.Next() {
		news, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *news)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]string, len(result))
	for i := range result {
		ids[i] = result[i].ID
	}
	authors, err := r.ListAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Authors = authors[result[i].ID]
	}
	return result, nil
}

func (r *newsRepository) ReplaceAuthors(ctx context.Context, newsID string, userIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM news_authors WHERE news_id=$1`, newsID); err != nil {
		return fmt.Errorf("clear authors: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}
	const query = `
        INSERT INTO news_authors (news_id, user_id)
        SELECT $1, unnest($2::uuid[])
        ON CONFLICT DO NOTHING`
	if _, err := r.db.Exec(ctx, query, newsID, userIDs); err != nil {
		return fmt.Errorf("insert authors: %w", err)
	}
	return nil
}

func (r *newsRepository) ListAuthors(ctx context.Context, newsIDs []string) (map[string][]domain.User, error) {
	result := make(map[string][]domain.User, len(newsIDs))
	if len(newsIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT na.news_id, u.id, u.email, u.name, u.surname, u.author
        FROM news_authors na JOIN users u ON u.id = na.user_id
        WHERE na.news_id = ANY($1::uuid[])
        ORDER BY u.surname, u.name`
	rows, err := r.db.Query(ctx, query, newsIDs)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var newsID string
		var user domain.User
		if err := rows.Scan(&newsID, &user.ID, &user.Email, &user.Name, &user.Surname, &user.Author); err != nil {
			return nil, err
		}
		result[newsID] = append(result[newsID], user)
	}
	return result, rows.Err()
}

func buildNewsFilter(filter NewsFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.GroupID != nil {
		args = append(args, *filter.GroupID)
		clauses = append(clauses, fmt.Sprintf("n.group_id=$%d", len(args)))
	}
	if filter.OnlyPublished {
		clauses = append(clauses, "n.published")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanNews(row pgx.Row) (*domain.News, error) {
	var news domain.News
	if err := row.Scan(
		&news.ID,
		&news.Title,
		&news.ContentRef,
		&news.Group.ID,
		&news.Group.Title,
		&news.PublisherID,
		&news.Published,
		&news.CreatedAt,
		&news.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &news, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
