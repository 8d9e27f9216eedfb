package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/maheshrc27/social-publisher/internal/models"
)

const socialAccountColumns = `id, platform, provider_account_id, provider_account_name, organization_id,
	access_token, refresh_token, access_token_expires_at, refresh_token_expires_at,
	scopes, status, metadata, connected_by, created_at, updated_at`

type SocialAccountRepository interface {
	Upsert(ctx context.Context, sa *models.SocialAccount) error
	GetByPlatform(ctx context.Context, platform string) (*models.SocialAccount, error)
	List(ctx context.Context) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error)
	DeleteByPlatform(ctx context.Context, platform string) (bool, error)
}

type socialAccountRepository struct {
	db *sqlx.DB
}

func NewSocialAccountRepository(db *sqlx.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

// Upsert writes the row for sa.Platform, replacing any previous connection
// for that platform in a single statement.
func (r *socialAccountRepository) Upsert(ctx context.Context, sa *models.SocialAccount) error {
	query := `
		INSERT INTO social_accounts (
			platform,
			provider_account_id,
			provider_account_name,
			organization_id,
			access_token,
			refresh_token,
			access_token_expires_at,
			refresh_token_expires_at,
			scopes,
			status,
			metadata,
			connected_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (platform) DO UPDATE SET
			provider_account_id = EXCLUDED.provider_account_id,
			provider_account_name = EXCLUDED.provider_account_name,
			organization_id = EXCLUDED.organization_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			refresh_token_expires_at = EXCLUDED.refresh_token_expires_at,
			scopes = EXCLUDED.scopes,
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			connected_by = EXCLUDED.connected_by,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		sa.Platform,
		sa.ProviderAccountID,
		sa.ProviderAccountName,
		sa.OrganizationID,
		sa.AccessToken,
		sa.RefreshToken,
		sa.AccessTokenExpiresAt,
		sa.RefreshTokenExpiresAt,
		sa.Scopes,
		sa.Status,
		sa.Metadata,
		sa.ConnectedBy,
	).Scan(&sa.ID, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *socialAccountRepository) GetByPlatform(ctx context.Context, platform string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1`

	var sa models.SocialAccount
	if err := r.db.GetContext(ctx, &sa, query, platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

func (r *socialAccountRepository) List(ctx context.Context) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts ORDER BY platform`

	var accounts []*models.SocialAccount
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts
		WHERE status = $1
		AND access_token_expires_at IS NOT NULL
		AND access_token_expires_at < $2`

	var accounts []*models.SocialAccount
	if err := r.db.SelectContext(ctx, &accounts, query, models.AccountStatusActive, before); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *socialAccountRepository) DeleteByPlatform(ctx context.Context, platform string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE platform = $1`, platform)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}
