package repository

import (
	"context"

	"github.com/spec-kit/news-portal/internal/domain"
	"github.com/spec-kit/news-portal/internal/persistence"
)

// NewsGroupRepository reads news group reference data.
type NewsGroupRepository interface {
	List(ctx context.Context) ([]domain.NewsGroup, error)
	GetByID(ctx context.Context, id string) (*domain.NewsGroup, error)
}

type newsGroupRepository struct {
	db persistence.DBTX
}

// NewNewsGroupRepository builds the repository.
func NewNewsGroupRepository(db persistence.DBTX) NewsGroupRepository {
	return &newsGroupRepository{db: db}
}

func (r *newsGroupRepository) List(ctx context.Context) ([]domain.NewsGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title FROM news_groups ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NewsGroup
	for rows.Next() {
		var group domain.NewsGroup
		if err := rows.Scan(&group.ID, &group.Title); err != nil {
			return nil, err
		}
		result = append(result, group)
	}
	return result, rows.Err()
}

func (r *newsGroupRepository) GetByID(ctx context.Context, id string) (*domain.NewsGroup, error) {
	var group domain.NewsGroup
	if err := r.db.QueryRow(ctx, `SELECT id, title FROM news_groups WHERE id=$1`, id).Scan(&group.ID, &group.Title); err != nil {
		return nil, err
	}
	return &group, nil
}
