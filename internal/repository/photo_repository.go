package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/social-publisher/internal/models"
)

type PhotoRepository interface {
	GetByID(ctx context.Context, id string) (*models.Photo, error)
}

type photoRepository struct {
	db *sqlx.DB
}

func NewPhotoRepository(db *sqlx.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `SELECT id, blob_key, photographer_name, event_id FROM photos WHERE id = $1`

	var photo models.Photo
	if err := r.db.GetContext(ctx, &photo, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &photo, nil
}
