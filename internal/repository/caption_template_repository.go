package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/social-publisher/internal/models"
)

type CaptionTemplateRepository interface {
	GetByID(ctx context.Context, id string) (*models.CaptionTemplate, error)
}

type captionTemplateRepository struct {
	db *sqlx.DB
}

func NewCaptionTemplateRepository(db *sqlx.DB) CaptionTemplateRepository {
	return &captionTemplateRepository{db: db}
}

func (r *captionTemplateRepository) GetByID(ctx context.Context, id string) (*models.CaptionTemplate, error) {
	query := `SELECT id, name, title_template, caption_template, default_hashtags,
		include_photographer_credit, include_event_link, created_at
		FROM caption_templates WHERE id = $1`

	var tpl models.CaptionTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &tpl, nil
}
