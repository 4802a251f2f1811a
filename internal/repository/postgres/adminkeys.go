package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/pkg/errors"
)

type adminKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdminKeyRepository creates a new admin key repository
func NewAdminKeyRepository(db *sql.DB, logger *zap.Logger) *adminKeyRepository {
	return &adminKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *adminKeyRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.AdminKey, error) {
	// bcrypt hashes are salted, so a direct lookup is impossible: iterate
	// the active keys and verify against each hash. The key count is tiny.
	query := `
		SELECT id, name, api_key_hash, is_active, created_at, updated_at
		FROM admin_keys
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query admin keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.AdminKey

		err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.APIKeyHash,
			&key.IsActive,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(key.APIKeyHash), []byte(apiKey)); err == nil {
			return &key, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *adminKeyRepository) Create(ctx context.Context, key *domain.AdminKey) error {
	query := `
		INSERT INTO admin_keys (id, name, api_key_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	if key.UpdatedAt.IsZero() {
		key.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Name,
		key.APIKeyHash,
		key.IsActive,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create admin key", zap.Error(err))
		return err
	}

	return nil
}
