package reports

import (
	"context"
	"sort"
	"time"

	"chequedentista/internal/core/apperror"
	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain/voucher"
)

// Service generates reporting views.
type Service struct {
	repo Repository
}

// NewService creates a reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DoctorMetrics recomputes the cumulative per-doctor funnel from the
// full voucher set, optionally narrowed by doctor and date range.
func (s *Service) DoctorMetrics(ctx context.Context, filter DoctorMetricsFilter) (*DoctorMetricsReport, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperror.NewValidation("from must be before to").
			WithDetail("from", filter.From).
			WithDetail("to", filter.To)
	}

	vs, err := s.repo.Vouchers(ctx)
	if err != nil {
		return nil, err
	}

	names, err := s.repo.DoctorNames(ctx)
	if err != nil {
		return nil, err
	}

	report := ComputeDoctorMetrics(vs, names, filter)
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// StatusDistribution recomputes the share of vouchers per status over
// the vouchers that entered the tracked workflow.
func (s *Service) StatusDistribution(ctx context.Context) (*StatusDistribution, error) {
	vs, err := s.repo.Vouchers(ctx)
	if err != nil {
		return nil, err
	}

	dist := ComputeStatusDistribution(vs)
	dist.GeneratedAt = time.Now().UTC()
	return dist, nil
}

// ExpiringVouchers lists vouchers whose expiry date falls within the
// horizon, annotated with signed days until expiry.
func (s *Service) ExpiringVouchers(ctx context.Context, horizonDays int) (*ExpiringReport, error) {
	if horizonDays <= 0 {
		return nil, apperror.NewValidation("horizon must be positive").
			WithDetail("field", "horizonDays").
			WithDetail("value", horizonDays)
	}

	vs, err := s.repo.Vouchers(ctx)
	if err != nil {
		return nil, err
	}

	report := ComputeExpiring(vs, horizonDays, time.Now().UTC())
	report.GeneratedAt = time.Now().UTC()
	return report, nil
}

// --- Pure aggregation ---

// ComputeDoctorMetrics aggregates the voucher set into per-doctor
// cumulative milestones. Each chain status implies all prior statuses
// were passed through, so counts and sums include every voucher at or
// beyond the milestone, giving funnel metrics rather than a snapshot.
func ComputeDoctorMetrics(vs []*voucher.Voucher, names map[id.ID]string, filter DoctorMetricsFilter) *DoctorMetricsReport {
	byDoctor := make(map[id.ID]*DoctorMetrics)

	for _, v := range vs {
		if filter.DoctorID != nil && v.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.From != nil && v.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && v.CreatedAt.After(*filter.To) {
			continue
		}

		m, ok := byDoctor[v.DoctorID]
		if !ok {
			m = &DoctorMetrics{
				DoctorID:     v.DoctorID,
				DoctorName:   names[v.DoctorID],
				Received:     Milestone{Amount: types.ZeroMoney()},
				Used:         Milestone{Amount: types.ZeroMoney()},
				Submitted:    Milestone{Amount: types.ZeroMoney()},
				PaidByPayer:  Milestone{Amount: types.ZeroMoney()},
				PaidToDoctor: Milestone{Amount: types.ZeroMoney()},
			}
			byDoctor[v.DoctorID] = m
		}

		add := func(ms *Milestone, milestone voucher.Status) {
			if v.Status.AtOrBeyond(milestone) {
				ms.Count++
				ms.Amount = ms.Amount.Add(v.Amount)
			}
		}
		add(&m.Received, voucher.StatusReceived)
		add(&m.Used, voucher.StatusUsed)
		add(&m.Submitted, voucher.StatusSubmitted)
		add(&m.PaidByPayer, voucher.StatusPaidByPayer)
		add(&m.PaidToDoctor, voucher.StatusPaidToDoctor)
	}

	items := make([]DoctorMetrics, 0, len(byDoctor))
	for _, m := range byDoctor {
		items = append(items, *m)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].DoctorName < items[j].DoctorName
	})

	return &DoctorMetricsReport{Items: items}
}

// ComputeStatusDistribution counts vouchers per status. Vouchers in
// pending_delivery or cancelled never entered the tracked workflow and
// are excluded from the denominator entirely.
func ComputeStatusDistribution(vs []*voucher.Voucher) *StatusDistribution {
	counts := make(map[voucher.Status]int)
	total := 0

	for _, v := range vs {
		if v.Status == voucher.StatusPendingDelivery || v.Status == voucher.StatusCancelled {
			continue
		}
		counts[v.Status]++
		total++
	}

	dist := &StatusDistribution{Total: total}
	for _, s := range voucher.Chain() {
		if s == voucher.StatusPendingDelivery {
			continue
		}
		n := counts[s]
		if n == 0 {
			continue
		}
		dist.Shares = append(dist.Shares, StatusShare{
			Status:     s,
			Label:      s.Meta().Label,
			Count:      n,
			Percentage: float64(n) / float64(total) * 100,
		})
	}

	return dist
}

// ComputeExpiring filters the voucher set down to expiry risk within
// the horizon. Settled and cancelled vouchers are skipped; already
// expired vouchers are included with a negative day count.
func ComputeExpiring(vs []*voucher.Voucher, horizonDays int, now time.Time) *ExpiringReport {
	report := &ExpiringReport{HorizonDays: horizonDays}

	for _, v := range vs {
		if v.Status == voucher.StatusPaidToDoctor || v.Status == voucher.StatusCancelled {
			continue
		}
		days, ok := v.DaysUntilExpiry(now)
		if !ok || days > horizonDays {
			continue
		}
		report.Items = append(report.Items, ExpiringVoucher{
			Voucher:         v,
			DaysUntilExpiry: days,
		})
	}

	sort.Slice(report.Items, func(i, j int) bool {
		return report.Items[i].DaysUntilExpiry < report.Items[j].DaysUntilExpiry
	})

	return report
}
