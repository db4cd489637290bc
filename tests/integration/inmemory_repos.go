package integration

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"ton-payment-gateway/internal/core/domain"
	"ton-payment-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]*domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]*domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	r.merchants[m.ID] = m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok || m.IsDeleted() {
		return nil, nil
	}
	return m, nil
}

func (r *inMemoryMerchantRepo) GetByAddress(ctx context.Context, address string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if m.Address == address && !m.IsDeleted() {
			return m, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Merchant
	for _, m := range r.merchants {
		if m.UserID == userID && !m.IsDeleted() {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryMerchantRepo) Update(ctx context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.merchants[m.ID]; !ok {
		return fmt.Errorf("merchant not found")
	}
	m.UpdatedAt = time.Now()
	r.merchants[m.ID] = m
	return nil
}

func (r *inMemoryMerchantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok || m.IsDeleted() {
		return fmt.Errorf("merchant not found")
	}
	now := time.Now()
	m.DeletedAt = &now
	return nil
}

func (r *inMemoryMerchantRepo) CountCreatedBetween(ctx context.Context, window ports.Window) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, m := range r.merchants {
		if inWindow(m.CreatedAt, window) {
			count++
		}
	}
	return count, nil
}

// --- In-Memory Address Repo ---

type inMemoryAddressRepo struct {
	mu        sync.RWMutex
	addresses map[string]*domain.Address
	merchants *inMemoryMerchantRepo
}

func newInMemoryAddressRepo(merchants *inMemoryMerchantRepo) *inMemoryAddressRepo {
	return &inMemoryAddressRepo{
		addresses: make(map[string]*domain.Address),
		merchants: merchants,
	}
}

func (r *inMemoryAddressRepo) Create(ctx context.Context, a *domain.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.addresses[a.Address] = a
	return nil
}

func (r *inMemoryAddressRepo) GetByAddress(ctx context.Context, address string) (*domain.Address, error) {
	r.mu.RLock()
	a, ok := r.addresses[address]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	// Populate the owning merchant the way the joined query does.
	merchant, err := r.merchants.GetByID(ctx, a.MerchantID)
	if err != nil {
		return nil, err
	}
	loaded := *a
	loaded.Merchant = merchant
	return &loaded, nil
}

func (r *inMemoryAddressRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]domain.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Address
	for _, a := range r.addresses {
		if a.MerchantID == merchantID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

// --- In-Memory Transaction Repo ---

// inMemoryTransactionRepo mirrors the SQL repo's semantics, including the
// unique hash constraint and the completed-positive deposit scope used by
// the aggregate queries.
type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*domain.Transaction
	byHash  map[string]*domain.Transaction
	entries []*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		byID:   make(map[uuid.UUID]*domain.Transaction),
		byHash: make(map[string]*domain.Transaction),
	}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byHash[t.Hash]; exists {
		return ports.ErrDuplicateHash
	}
	r.byID[t.ID] = t
	r.byHash[t.Hash] = t
	r.entries = append(r.entries, t)
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (r *inMemoryTransactionRepo) GetByHash(ctx context.Context, hash string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byHash[hash]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Transaction
	for _, t := range r.entries {
		if t.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.IsDirectDeposit != nil && t.IsDirectDeposit != *params.IsDirectDeposit {
			continue
		}
		if !inWindow(t.CreatedAt, params.Window) {
			continue
		}
		matched = append(matched, *t)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryTransactionRepo) SumNetAmount(ctx context.Context, merchantID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.entries {
		if t.MerchantID == merchantID {
			sum = sum.Add(t.NetAmount())
		}
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) WindowStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) (*ports.WindowStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := tallyStats(r.scoped(merchantID, window))
	return &stats, nil
}

func (r *inMemoryTransactionRepo) DailyStats(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.DailyStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	buckets := make(map[time.Time][]*domain.Transaction)
	for _, t := range r.scoped(merchantID, window) {
		day := dayOf(t.CreatedAt)
		buckets[day] = append(buckets[day], t)
	}

	days := make([]ports.DailyStat, 0, len(buckets))
	for day, entries := range buckets {
		s := tallyStats(entries)
		days = append(days, ports.DailyStat{
			Date: day, Total: s.Total, Completed: s.Completed, Failed: s.Failed,
			Deposits: s.Deposits, Direct: s.Direct, GMV: s.GMV, Fee: s.Fee,
			AvgConfirmMs: s.AvgConfirmMs, P95ConfirmMs: s.P95ConfirmMs,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (r *inMemoryTransactionRepo) MerchantStats(ctx context.Context, window ports.Window) ([]ports.MerchantStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	buckets := make(map[uuid.UUID][]*domain.Transaction)
	for _, t := range r.scoped(nil, window) {
		buckets[t.MerchantID] = append(buckets[t.MerchantID], t)
	}

	stats := make([]ports.MerchantStat, 0, len(buckets))
	for id, entries := range buckets {
		s := tallyStats(entries)
		stats = append(stats, ports.MerchantStat{
			MerchantID: id, Total: s.Total, Completed: s.Completed, Failed: s.Failed,
			Deposits: s.Deposits, Direct: s.Direct, GMV: s.GMV,
			AvgConfirmMs: s.AvgConfirmMs, P95ConfirmMs: s.P95ConfirmMs,
		})
	}
	return stats, nil
}

func (r *inMemoryTransactionRepo) CustomerCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, t := range r.scoped(merchantID, window) {
		if isDeposit(t) && t.IsDirectDeposit && t.Metadata != "" {
			counts[t.Metadata]++
		}
	}
	result := make([]ports.CustomerCount, 0, len(counts))
	for metadata, count := range counts {
		result = append(result, ports.CustomerCount{Metadata: metadata, Count: count})
	}
	return result, nil
}

func (r *inMemoryTransactionRepo) CustomerDailyCounts(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.CustomerDailyCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type key struct {
		day      time.Time
		metadata string
	}
	counts := make(map[key]int64)
	for _, t := range r.scoped(merchantID, window) {
		if isDeposit(t) && t.IsDirectDeposit && t.Metadata != "" {
			counts[key{dayOf(t.CreatedAt), t.Metadata}]++
		}
	}
	result := make([]ports.CustomerDailyCount, 0, len(counts))
	for k, count := range counts {
		result = append(result, ports.CustomerDailyCount{Date: k.day, Metadata: k.metadata, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *inMemoryTransactionRepo) HourlyHeatmap(ctx context.Context, merchantID *uuid.UUID, window ports.Window) ([]ports.HeatmapCell, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	type slot struct{ day, hour int }
	counts := make(map[slot]int64)
	for _, t := range r.scoped(merchantID, window) {
		if t.Status == domain.TransactionStatusCompleted {
			counts[slot{int(t.CreatedAt.Weekday()), t.CreatedAt.Hour()}]++
		}
	}
	cells := make([]ports.HeatmapCell, 0, len(counts))
	for s, count := range counts {
		cells = append(cells, ports.HeatmapCell{Day: s.day, Hour: s.hour, Count: count})
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Day != cells[j].Day {
			return cells[i].Day < cells[j].Day
		}
		return cells[i].Hour < cells[j].Hour
	})
	return cells, nil
}

func (r *inMemoryTransactionRepo) TopSlowest(ctx context.Context, merchantID *uuid.UUID, window ports.Window, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var deposits []domain.Transaction
	for _, t := range r.scoped(merchantID, window) {
		if isDeposit(t) {
			deposits = append(deposits, *t)
		}
	}
	sort.SliceStable(deposits, func(i, j int) bool { return deposits[i].ConfirmationTime > deposits[j].ConfirmationTime })
	if len(deposits) > limit {
		deposits = deposits[:limit]
	}
	return deposits, nil
}

func (r *inMemoryTransactionRepo) FirstActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	first := make(map[uuid.UUID]time.Time)
	for _, t := range r.entries {
		if t.Status != domain.TransactionStatusCompleted {
			continue
		}
		if existing, ok := first[t.MerchantID]; !ok || t.CreatedAt.Before(existing) {
			first[t.MerchantID] = t.CreatedAt
		}
	}
	months := make([]ports.MerchantMonth, 0, len(first))
	for id, ts := range first {
		months = append(months, ports.MerchantMonth{MerchantID: id, Month: monthOf(ts)})
	}
	return months, nil
}

func (r *inMemoryTransactionRepo) ActivityMonths(ctx context.Context) ([]ports.MerchantMonth, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[ports.MerchantMonth]struct{})
	for _, t := range r.entries {
		if t.Status == domain.TransactionStatusCompleted {
			seen[ports.MerchantMonth{MerchantID: t.MerchantID, Month: monthOf(t.CreatedAt)}] = struct{}{}
		}
	}
	months := make([]ports.MerchantMonth, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	return months, nil
}

func (r *inMemoryTransactionRepo) CountActiveMerchants(ctx context.Context, window ports.Window) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make(map[uuid.UUID]struct{})
	for _, t := range r.scoped(nil, window) {
		if t.Status == domain.TransactionStatusCompleted {
			active[t.MerchantID] = struct{}{}
		}
	}
	return int64(len(active)), nil
}

func (r *inMemoryTransactionRepo) ActiveMerchantsByDay(ctx context.Context, window ports.Window) ([]ports.DatedCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	days := make(map[time.Time]map[uuid.UUID]struct{})
	for _, t := range r.scoped(nil, window) {
		if t.Status != domain.TransactionStatusCompleted {
			continue
		}
		day := dayOf(t.CreatedAt)
		if days[day] == nil {
			days[day] = make(map[uuid.UUID]struct{})
		}
		days[day][t.MerchantID] = struct{}{}
	}
	counts := make([]ports.DatedCount, 0, len(days))
	for day, merchants := range days {
		counts = append(counts, ports.DatedCount{Date: day, Count: int64(len(merchants))})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date.Before(counts[j].Date) })
	return counts, nil
}

// scoped returns the entries matching the merchant and window filters.
// Callers must hold the read lock.
func (r *inMemoryTransactionRepo) scoped(merchantID *uuid.UUID, window ports.Window) []*domain.Transaction {
	var matched []*domain.Transaction
	for _, t := range r.entries {
		if merchantID != nil && t.MerchantID != *merchantID {
			continue
		}
		if !inWindow(t.CreatedAt, window) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}

// --- Aggregation helpers ---

func inWindow(ts time.Time, w ports.Window) bool {
	if !w.StartDate.IsZero() && ts.Before(w.StartDate) {
		return false
	}
	if !w.EndDate.IsZero() && ts.After(w.EndDate) {
		return false
	}
	return true
}

// isDeposit matches the SQL aggregate scope: completed entries with a
// strictly positive amount.
func isDeposit(t *domain.Transaction) bool {
	return t.Status == domain.TransactionStatusCompleted && t.Amount.IsPositive()
}

func tallyStats(entries []*domain.Transaction) ports.WindowStats {
	s := ports.WindowStats{GMV: decimal.Zero, Fee: decimal.Zero}
	var confirms []int64
	for _, t := range entries {
		s.Total++
		switch t.Status {
		case domain.TransactionStatusCompleted:
			s.Completed++
			s.Fee = s.Fee.Add(t.ServiceFee)
		case domain.TransactionStatusFailed:
			s.Failed++
		}
		if isDeposit(t) {
			s.Deposits++
			if t.IsDirectDeposit {
				s.Direct++
			}
			s.GMV = s.GMV.Add(t.Amount)
			confirms = append(confirms, t.ConfirmationTime)
		}
	}
	if len(confirms) > 0 {
		var sum int64
		for _, c := range confirms {
			sum += c
		}
		s.AvgConfirmMs = float64(sum) / float64(len(confirms))
		s.P95ConfirmMs = percentile95(confirms)
	}
	return s
}

// percentile95 interpolates like percentile_cont(0.95).
func percentile95(values []int64) float64 {
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := 0.95 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*(float64(sorted[hi])-float64(sorted[lo]))
}

func dayOf(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func monthOf(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
}
