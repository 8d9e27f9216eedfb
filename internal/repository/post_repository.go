package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/maheshrc27/social-publisher/internal/models"
)

var ErrStatusTransition = errors.New("post status transition not allowed")

type PostRepository interface {
	Create(ctx context.Context, post *models.SocialPost) error
	GetByID(ctx context.Context, id string) (*models.SocialPost, error)
	UpdatePostStatus(ctx context.Context, postID, status string) error
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.SocialPost) error {
	query := `
		INSERT INTO social_posts (
			id, platforms, title, caption, photo_ids, event_id, band_id, template_id,
			include_photographer_credit, include_event_link, hashtags,
			ig_collaborator_handles, crop_data, created_by, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		post.ID,
		post.Platforms,
		post.Title,
		post.Caption,
		post.PhotoIDs,
		post.EventID,
		post.BandID,
		post.TemplateID,
		post.IncludePhotographerCredit,
		post.IncludeEventLink,
		post.Hashtags,
		post.IGCollaboratorHandles,
		post.CropData,
		post.CreatedBy,
		post.Status,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	query := `SELECT id, platforms, title, caption, photo_ids, event_id, band_id, template_id,
		include_photographer_credit, include_event_link, hashtags, ig_collaborator_handles,
		crop_data, created_by, status, created_at, updated_at
		FROM social_posts WHERE id = $1`

	var post models.SocialPost
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

// UpdatePostStatus moves a post forward. The WHERE clause only matches rows
// whose current status may precede the new one, so a stale or backwards
// update affects nothing and returns ErrStatusTransition.
func (r *postRepository) UpdatePostStatus(ctx context.Context, postID, status string) error {
	query := `
		UPDATE social_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), postID, pq.Array(models.PreviousStatuses(status)))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return fmt.Errorf("%w: post %s -> %s", ErrStatusTransition, postID, status)
	}
	return nil
}
