package repository

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/social-publisher/internal/models"
)

type PostResultRepository interface {
	Create(ctx context.Context, result *models.SocialPostResult) error
	ListByPostID(ctx context.Context, postID string) ([]*models.SocialPostResult, error)
}

type postResultRepository struct {
	db *sqlx.DB
}

func NewPostResultRepository(db *sqlx.DB) PostResultRepository {
	return &postResultRepository{db: db}
}

func (r *postResultRepository) Create(ctx context.Context, res *models.SocialPostResult) error {
	query := `
		INSERT INTO social_post_results (
			id, post_id, platform, status, external_post_id,
			external_post_url, external_url_reliable, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		res.ID,
		res.PostID,
		res.Platform,
		res.Status,
		res.ExternalPostID,
		res.ExternalPostURL,
		res.ExternalURLReliable,
		res.ErrorMessage,
	).Scan(&res.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postResultRepository) ListByPostID(ctx context.Context, postID string) ([]*models.SocialPostResult, error) {
	query := `SELECT id, post_id, platform, status, external_post_id, external_post_url,
		external_url_reliable, error_message, created_at
		FROM social_post_results WHERE post_id = $1 ORDER BY created_at, platform`

	var results []*models.SocialPostResult
	if err := r.db.SelectContext(ctx, &results, query, postID); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return results, nil
}
