package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ton-payment-gateway/internal/core/ports"
	"ton-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
)

const maxCohortOffset = 12

// RetentionCohorts groups merchants by the calendar month of their first
// completed transaction, then measures for offsets 0-12 how many of each
// cohort's merchants transacted in that calendar month.
func (s *AnalyticsServiceImpl) RetentionCohorts(ctx context.Context) ([]ports.RetentionCohort, error) {
	cohorts, activity, err := s.loadCohortData(ctx)
	if err != nil {
		return nil, err
	}

	var out []ports.RetentionCohort
	now := monthStart(time.Now().UTC())
	for _, month := range sortedMonths(cohorts) {
		members := cohorts[month]
		for offset := 0; offset <= maxCohortOffset; offset++ {
			target := month.AddDate(0, offset, 0)
			if target.After(now) {
				break
			}
			retained := 0
			for _, id := range members {
				if activity[activityKey(id, target)] {
					retained++
				}
			}
			out = append(out, ports.RetentionCohort{
				CohortMonth:            month.Format(monthLayout),
				MonthOffset:            offset,
				RetainedMerchants:      retained,
				TotalMerchantsInCohort: len(members),
				RetentionRate:          ratio(int64(retained), int64(len(members))),
			})
		}
	}
	return out, nil
}

// NewMerchantCohorts is the non-normalized cohort heatmap: raw
// active-merchant counts per cohort month and offset.
func (s *AnalyticsServiceImpl) NewMerchantCohorts(ctx context.Context) ([]ports.CohortCell, error) {
	cohorts, activity, err := s.loadCohortData(ctx)
	if err != nil {
		return nil, err
	}

	var out []ports.CohortCell
	now := monthStart(time.Now().UTC())
	for _, month := range sortedMonths(cohorts) {
		members := cohorts[month]
		for offset := 0; offset <= maxCohortOffset; offset++ {
			target := month.AddDate(0, offset, 0)
			if target.After(now) {
				break
			}
			active := 0
			for _, id := range members {
				if activity[activityKey(id, target)] {
					active++
				}
			}
			out = append(out, ports.CohortCell{
				CohortMonth:     month.Format(monthLayout),
				MonthOffset:     offset,
				ActiveMerchants: active,
			})
		}
	}
	return out, nil
}

// loadCohortData returns cohort membership (first-activity month ->
// merchant ids) and the set of (merchant, month) activity pairs.
func (s *AnalyticsServiceImpl) loadCohortData(ctx context.Context) (map[time.Time][]uuid.UUID, map[string]bool, error) {
	firsts, err := s.txRepo.FirstActivityMonths(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("first activity months: %w", err))
	}
	months, err := s.txRepo.ActivityMonths(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("activity months: %w", err))
	}

	cohorts := make(map[time.Time][]uuid.UUID)
	for _, f := range firsts {
		m := monthStart(f.Month)
		cohorts[m] = append(cohorts[m], f.MerchantID)
	}
	activity := make(map[string]bool, len(months))
	for _, a := range months {
		activity[activityKey(a.MerchantID, monthStart(a.Month))] = true
	}
	return cohorts, activity, nil
}

func activityKey(id uuid.UUID, month time.Time) string {
	return id.String() + "|" + month.Format(monthLayout)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func sortedMonths(cohorts map[time.Time][]uuid.UUID) []time.Time {
	months := make([]time.Time, 0, len(cohorts))
	for m := range cohorts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}
