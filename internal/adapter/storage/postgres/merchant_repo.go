package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MerchantRepo implements ports.MerchantRepository. Wallet key material is
// stored as an opaque JSONB blob; reads exclude soft-deleted rows.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

const merchantColumns = `id, name, webhook_url, address, secret_key, keys, user_id, created_at, updated_at, deleted_at`

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	if m.CreatedAt.IsZero() {
		now := time.Now()
		m.CreatedAt = now
		m.UpdatedAt = now
	}

	keys, err := json.Marshal(m.Keys)
	if err != nil {
		return fmt.Errorf("marshal wallet keys: %w", err)
	}

	query := `INSERT INTO merchants (id, name, webhook_url, address, secret_key, keys, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.pool.Exec(ctx, query,
		m.ID, m.Name, m.WebhookURL, m.Address, m.SecretKey, keys, m.UserID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a live merchant by UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE id = $1 AND deleted_at IS NULL`, merchantColumns)
	return scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByAddress fetches a live merchant by its primary deposit address.
func (r *MerchantRepo) GetByAddress(ctx context.Context, address string) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE address = $1 AND deleted_at IS NULL`, merchantColumns)
	return scanMerchant(r.pool.QueryRow(ctx, query, address))
}

// ListByUser fetches all live merchants owned by a user.
func (r *MerchantRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at`, merchantColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		m, err := scanMerchantRow(rows)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant rows: %w", err)
	}
	return merchants, nil
}

// Update persists the mutable merchant fields.
func (r *MerchantRepo) Update(ctx context.Context, m *domain.Merchant) error {
	query := `UPDATE merchants SET name = $1, webhook_url = $2, updated_at = $3 WHERE id = $4 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, m.Name, m.WebhookURL, time.Now(), m.ID)
	if err != nil {
		return fmt.Errorf("update merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", m.ID)
	}
	return nil
}

// SoftDelete tombstones a merchant so its ledger entries stay attributable.
func (r *MerchantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE merchants SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("soft-delete merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

// CountCreatedBetween counts merchants created inside the window.
func (r *MerchantRepo) CountCreatedBetween(ctx context.Context, window ports.Window) (int64, error) {
	query := `SELECT COUNT(*) FROM merchants WHERE created_at >= $1 AND created_at <= $2`

	var count int64
	if err := r.pool.QueryRow(ctx, query, window.StartDate, window.EndDate).Scan(&count); err != nil {
		return 0, fmt.Errorf("count merchants: %w", err)
	}
	return count, nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m, err := scanMerchantRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func scanMerchantRow(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	var keys []byte
	err := row.Scan(
		&m.ID, &m.Name, &m.WebhookURL, &m.Address, &m.SecretKey, &keys,
		&m.UserID, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	if len(keys) > 0 {
		if err := json.Unmarshal(keys, &m.Keys); err != nil {
			return nil, fmt.Errorf("unmarshal wallet keys: %w", err)
		}
	}
	return m, nil
}
