package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ton-payment-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddressRepo implements ports.AddressRepository.
type AddressRepo struct {
	pool Pool
}

// NewAddressRepo creates a new AddressRepo.
func NewAddressRepo(pool Pool) *AddressRepo {
	return &AddressRepo{pool: pool}
}

// Create inserts a new sub-address.
func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	if a.CreatedAt.IsZero() {
		now := time.Now()
		a.CreatedAt = now
		a.UpdatedAt = now
	}

	keys, err := json.Marshal(a.Keys)
	if err != nil {
		return fmt.Errorf("marshal wallet keys: %w", err)
	}

	query := `INSERT INTO addresses (id, address, keys, merchant_id, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.pool.Exec(ctx, query,
		a.ID, a.Address, keys, a.MerchantID, a.Metadata, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// GetByAddress fetches an address by its on-chain string with the owning
// merchant eager-loaded, so deposit resolution needs a single round trip.
func (r *AddressRepo) GetByAddress(ctx context.Context, address string) (*domain.Address, error) {
	query := `SELECT a.id, a.address, a.keys, a.merchant_id, a.metadata, a.created_at, a.updated_at,
		m.id, m.name, m.webhook_url, m.address, m.secret_key, m.keys, m.user_id, m.created_at, m.updated_at, m.deleted_at
		FROM addresses a
		JOIN merchants m ON m.id = a.merchant_id
		WHERE a.address = $1 AND m.deleted_at IS NULL`

	a := &domain.Address{}
	m := &domain.Merchant{}
	var addrKeys, merchantKeys []byte
	err := r.pool.QueryRow(ctx, query, address).Scan(
		&a.ID, &a.Address, &addrKeys, &a.MerchantID, &a.Metadata, &a.CreatedAt, &a.UpdatedAt,
		&m.ID, &m.Name, &m.WebhookURL, &m.Address, &m.SecretKey, &merchantKeys,
		&m.UserID, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	if len(addrKeys) > 0 {
		if err := json.Unmarshal(addrKeys, &a.Keys); err != nil {
			return nil, fmt.Errorf("unmarshal address keys: %w", err)
		}
	}
	if len(merchantKeys) > 0 {
		if err := json.Unmarshal(merchantKeys, &m.Keys); err != nil {
			return nil, fmt.Errorf("unmarshal merchant keys: %w", err)
		}
	}
	a.Merchant = m
	return a, nil
}

// ListByMerchant fetches every sub-address owned by a merchant.
func (r *AddressRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error) {
	query := `SELECT id, address, keys, merchant_id, metadata, created_at, updated_at
		FROM addresses WHERE merchant_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		a := domain.Address{}
		var keys []byte
		err := rows.Scan(&a.ID, &a.Address, &keys, &a.MerchantID, &a.Metadata, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		if len(keys) > 0 {
			if err := json.Unmarshal(keys, &a.Keys); err != nil {
				return nil, fmt.Errorf("unmarshal address keys: %w", err)
			}
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate address rows: %w", err)
	}
	return addresses, nil
}
