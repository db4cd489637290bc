package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

const transactionColumns = `id, amount, service_fee, hash, metadata, is_direct_deposit, status, confirmation_time, merchant_id, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository over the
// append-only ledger table. The unique index on hash is the final backstop
// against duplicate deposit booking.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger entry. A unique violation on hash maps to
// ports.ErrDuplicateHash so callers can treat the race as an ordinary
// duplicate.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, amount, service_fee, hash, metadata, is_direct_deposit, status, confirmation_time, merchant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Amount, t.ServiceFee, t.Hash, t.Metadata, t.IsDirectDeposit,
		t.Status, t.ConfirmationTime, t.MerchantID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateHash
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByHash fetches a ledger entry by its external reference hash.
func (r *TransactionRepo) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE hash = $1`, transactionColumns)
	return scanTransaction(r.pool.QueryRow(ctx, query, hash))
}

// List fetches ledger entries with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any

	args = append(args, params.MerchantID)
	conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", len(args)))

	if params.Status != nil {
		args = append(args, *params.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.IsDirectDeposit != nil {
		args = append(args, *params.IsDirectDeposit)
		conditions = append(conditions, fmt.Sprintf("is_direct_deposit = $%d", len(args)))
	}
	if !params.Window.StartDate.IsZero() {
		args = append(args, params.Window.StartDate)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !params.Window.EndDate.IsZero() {
		args = append(args, params.Window.EndDate)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	args = append(args, params.PageSize, offset)
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumNetAmount computes the merchant's derived ledger balance.
func (r *TransactionRepo) SumNetAmount(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount - service_fee), 0) FROM transactions WHERE merchant_id = $1`

	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, merchantID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum net amount: %w", err)
	}
	return sum, nil
}

// depositFilter restricts an aggregate to completed deposits.
const depositFilter = `status = 'COMPLETED' AND amount > 0`

// WindowStats computes the point-metric aggregates in a single pass.
func (r *TransactionRepo) WindowStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) (*ports.WindowStats, error) {
	where, args := buildFilter(merchantID, window)

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COUNT(*) FILTER (WHERE %[1]s) AS deposits,
		COUNT(*) FILTER (WHERE %[1]s AND is_direct_deposit) AS direct,
		COALESCE(SUM(amount) FILTER (WHERE %[1]s), 0) AS gmv,
		COALESCE(SUM(service_fee) FILTER (WHERE status = 'COMPLETED'), 0) AS fee,
		COALESCE(AVG(confirmation_time) FILTER (WHERE %[1]s), 0) AS avg_confirm,
		COALESCE(percentile_cont(0.95) WITHIN GROUP (ORDER BY confirmation_time) FILTER (WHERE %[1]s), 0) AS p95_confirm
		FROM transactions %[2]s`, depositFilter, where)

	stats := &ports.WindowStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total, &stats.Completed, &stats.Failed, &stats.Deposits, &stats.Direct,
		&stats.GMV, &stats.Fee, &stats.AvgConfirmMs, &stats.P95ConfirmMs,
	)
	if err != nil {
		return nil, fmt.Errorf("window stats: %w", err)
	}
	return stats, nil
}

// DailyStats is WindowStats bucketed by day.
func (r *TransactionRepo) DailyStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.DailyStat, error) {
	where, args := buildFilter(merchantID, window)

	query := fmt.Sprintf(`SELECT
		date_trunc('day', created_at) AS day,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COUNT(*) FILTER (WHERE %[1]s) AS deposits,
		COUNT(*) FILTER (WHERE %[1]s AND is_direct_deposit) AS direct,
		COALESCE(SUM(amount) FILTER (WHERE %[1]s), 0) AS gmv,
		COALESCE(SUM(service_fee) FILTER (WHERE status = 'COMPLETED'), 0) AS fee,
		COALESCE(AVG(confirmation_time) FILTER (WHERE %[1]s), 0) AS avg_confirm,
		COALESCE(percentile_cont(0.95) WITHIN GROUP (ORDER BY confirmation_time) FILTER (WHERE %[1]s), 0) AS p95_confirm
		FROM transactions %[2]s
		GROUP BY day ORDER BY day`, depositFilter, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	defer rows.Close()

	var days []ports.DailyStat
	for rows.Next() {
		d := ports.DailyStat{}
		err := rows.Scan(
			&d.Date, &d.Total, &d.Completed, &d.Failed, &d.Deposits, &d.Direct,
			&d.GMV, &d.Fee, &d.AvgConfirmMs, &d.P95ConfirmMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stats: %w", err)
	}
	return days, nil
}

// MerchantStats is WindowStats bucketed by merchant, system-wide.
func (r *TransactionRepo) MerchantStats(ctx context.Context, window ports.Window) ([]ports.MerchantStat, error) {
	where, args := buildFilter(nil, window)

	query := fmt.Sprintf(`SELECT
		merchant_id,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COUNT(*) FILTER (WHERE %[1]s) AS deposits,
		COUNT(*) FILTER (WHERE %[1]s AND is_direct_deposit) AS direct,
		COALESCE(SUM(amount) FILTER (WHERE %[1]s), 0) AS gmv,
		COALESCE(AVG(confirmation_time) FILTER (WHERE %[1]s), 0) AS avg_confirm,
		COALESCE(percentile_cont(0.95) WITHIN GROUP (ORDER BY confirmation_time) FILTER (WHERE %[1]s), 0) AS p95_confirm
		FROM transactions %[2]s
		GROUP BY merchant_id`, depositFilter, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("merchant stats: %w", err)
	}
	defer rows.Close()

	var stats []ports.MerchantStat
	for rows.Next() {
		m := ports.MerchantStat{}
		err := rows.Scan(
			&m.MerchantID, &m.Total, &m.Completed, &m.Failed, &m.Deposits, &m.Direct,
			&m.GMV, &m.AvgConfirmMs, &m.P95ConfirmMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan merchant stat: %w", err)
		}
		stats = append(stats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant stats: %w", err)
	}
	return stats, nil
}

// CustomerCounts counts completed direct deposits per metadata correlation
// key. Entries without metadata carry no customer signal and are skipped.
func (r *TransactionRepo) CustomerCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerCount, error) {
	where, args := buildFilter(merchantID, window, depositFilter, "is_direct_deposit", "metadata <> ''")

	query := fmt.Sprintf(`SELECT metadata, COUNT(*) FROM transactions %s GROUP BY metadata`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer counts: %w", err)
	}
	defer rows.Close()

	var counts []ports.CustomerCount
	for rows.Next() {
		c := ports.CustomerCount{}
		if err := rows.Scan(&c.Metadata, &c.Count); err != nil {
			return nil, fmt.Errorf("scan customer count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer counts: %w", err)
	}
	return counts, nil
}

// CustomerDailyCounts is CustomerCounts bucketed by day.
func (r *TransactionRepo) CustomerDailyCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerDailyCount, error) {
	where, args := buildFilter(merchantID, window, depositFilter, "is_direct_deposit", "metadata <> ''")

	query := fmt.Sprintf(`SELECT date_trunc('day', created_at) AS day, metadata, COUNT(*)
		FROM transactions %s GROUP BY day, metadata ORDER BY day`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer daily counts: %w", err)
	}
	defer rows.Close()

	var counts []ports.CustomerDailyCount
	for rows.Next() {
		c := ports.CustomerDailyCount{}
		if err := rows.Scan(&c.Date, &c.Metadata, &c.Count); err != nil {
			return nil, fmt.Errorf("scan customer daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer daily counts: %w", err)
	}
	return counts, nil
}

// HourlyHeatmap counts completed transactions per (weekday, hour) slot.
func (r *TransactionRepo) HourlyHeatmap(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.HeatmapCell, error) {
	where, args := buildFilter(merchantID, window, "status = 'COMPLETED'")

	query := fmt.Sprintf(`SELECT EXTRACT(DOW FROM created_at)::int AS day, EXTRACT(HOUR FROM created_at)::int AS hour, COUNT(*)
		FROM transactions %s GROUP BY day, hour ORDER BY day, hour`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hourly heatmap: %w", err)
	}
	defer rows.Close()

	var cells []ports.HeatmapCell
	for rows.Next() {
		c := ports.HeatmapCell{}
		if err := rows.Scan(&c.Day, &c.Hour, &c.Count); err != nil {
			return nil, fmt.Errorf("scan heatmap cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heatmap cells: %w", err)
	}
	return cells, nil
}

// TopSlowest fetches the completed deposits with the highest confirmation
// times.
func (r *TransactionRepo) TopSlowest(ctx context.Context, merchantID *uuid.UUID, window ports.Window, limit int) ([]domain.Transaction, error) {
	where, args := buildFilter(merchantID, window, depositFilter)
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY confirmation_time DESC LIMIT $%d`,
		transactionColumns, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top slowest: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// FirstActivityMonths returns each merchant's first completed-transaction
// month, the cohort grouping key.
func (r *TransactionRepo) FirstActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	query := `SELECT merchant_id, date_trunc('month', MIN(created_at))
		FROM transactions WHERE status = 'COMPLETED' GROUP BY merchant_id`
	return r.queryMerchantMonths(ctx, query)
}

// ActivityMonths returns every distinct (merchant, month) with at least one
// completed transaction.
func (r *TransactionRepo) ActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	query := `SELECT DISTINCT merchant_id, date_trunc('month', created_at)
		FROM transactions WHERE status = 'COMPLETED'`
	return r.queryMerchantMonths(ctx, query)
}

func (r *TransactionRepo) queryMerchantMonths(ctx context.Context, query string) ([]ports.MerchantMonth, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("merchant months: %w", err)
	}
	defer rows.Close()

	var months []ports.MerchantMonth
	for rows.Next() {
		m := ports.MerchantMonth{}
		if err := rows.Scan(&m.MerchantID, &m.Month); err != nil {
			return nil, fmt.Errorf("scan merchant month: %w", err)
		}
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant months: %w", err)
	}
	return months, nil
}

// CountActiveMerchants counts merchants with at least one completed
// transaction in the window.
func (r *TransactionRepo) CountActiveMerchants(ctx context.Context, window ports.Window) (int64, error) {
	where, args := buildFilter(nil, window, "status = 'COMPLETED'")

	query := fmt.Sprintf(`SELECT COUNT(DISTINCT merchant_id) FROM transactions %s`, where)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active merchants: %w", err)
	}
	return count, nil
}

// ActiveMerchantsByDay counts distinct transacting merchants per day.
func (r *TransactionRepo) ActiveMerchantsByDay(ctx context.Context, window ports.Window) ([]ports.DatedCount, error) {
	where, args := buildFilter(nil, window, "status = 'COMPLETED'")

	query := fmt.Sprintf(`SELECT date_trunc('day', created_at) AS day, COUNT(DISTINCT merchant_id)
		FROM transactions %s GROUP BY day ORDER BY day`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("active merchants by day: %w", err)
	}
	defer rows.Close()

	var counts []ports.DatedCount
	for rows.Next() {
		c := ports.DatedCount{}
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("scan dated count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dated counts: %w", err)
	}
	return counts, nil
}

// buildFilter assembles a WHERE clause from optional merchant scope, window
// bounds and literal conditions.
func buildFilter(merchantID *uuid.UUID, window ports.Window, extra ...string) (string, []any) {
	conditions := append([]string{}, extra...)
	var args []any

	if merchantID != nil {
		args = append(args, *merchantID)
		conditions = append(conditions, fmt.Sprintf("merchant_id = $%d", len(args)))
	}
	if !window.StartDate.IsZero() {
		args = append(args, window.StartDate)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !window.EndDate.IsZero() {
		args = append(args, window.EndDate)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Amount, &t.ServiceFee, &t.Hash, &t.Metadata, &t.IsDirectDeposit,
		&t.Status, &t.ConfirmationTime, &t.MerchantID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.Amount, &t.ServiceFee, &t.Hash, &t.Metadata, &t.IsDirectDeposit,
			&t.Status, &t.ConfirmationTime, &t.MerchantID, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}
