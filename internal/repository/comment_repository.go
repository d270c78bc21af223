package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/persistence"
)

// CommentRepository manages comments attached to news.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByNews(ctx context.Context, newsID string) (int64, error)
	ListByNews(ctx context.Context, newsID string, includeInactive bool) ([]domain.Comment, error)
}

type commentRepository struct {
	db persistence.DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db persistence.DBTX) CommentRepository {
	return &commentRepository{db: db}
}

const commentSelect = `
        SELECT c.id, c.news_id, c.text, c.active, c.created_at,
               u.id, u.email, u.name, u.surname, u.role, u.author
        FROM comments c JOIN users u ON u.id = c.user_id`

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (news_id, user_id, text, active, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		comment.NewsID,
		comment.Author.ID,
		comment.Text,
		comment.Active,
		comment.CreatedAt,
	).Scan(&comment.ID)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	cmd, err := r.db.Exec(ctx, `UPDATE comments SET text=$1, active=$2 WHERE id=$3`,
		comment.Text,
		comment.Active,
		comment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id=$1`, id))
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *commentRepository) DeleteByNews(ctx context.Context, newsID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM comments WHERE news_id=$1`, newsID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *commentRepository) ListByNews(ctx context.Context, newsID string, includeInactive bool) ([]domain.Comment, error) {
	query := commentSelect + ` WHERE c.news_id=$1`
	if !includeInactive {
		query += ` AND c.active`
	}
	query += ` ORDER BY c.created_at ASC, c.seq ASC`

	rows, err := r.db.Query(ctx, query, newsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(
		&c.ID,
		&c.NewsID,
		&c.Text,
		&c.Active,
		&c.CreatedAt,
		&c.Author.ID,
		&c.Author.Email,
		&c.Author.Name,
		&c.Author.Surname,
		&c.Author.Role,
		&c.Author.Author,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
