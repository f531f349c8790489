// Package reports provides the aggregation engine. Every view is
// recomputed from the full clinic voucher set on each request; no
// aggregate state is cached or incrementally maintained.
package reports

import (
	"time"

	"chequedentista/internal/core/id"
	"chequedentista/internal/core/types"
	"chequedentista/internal/domain/voucher"
)

// --- Doctor metrics ---

// DoctorMetricsFilter narrows the voucher set before aggregation.
type DoctorMetricsFilter struct {
	// DoctorID restricts to one doctor (nil = all doctors).
	DoctorID *id.ID

	// From/To restrict by voucher creation date.
	From *time.Time
	To   *time.Time
}

// Milestone holds the cumulative count and sum for one stage of the
// forward chain. Cumulative: a voucher currently at paid_to_doctor has
// passed through every earlier milestone and counts toward all of them.
type Milestone struct {
	Count  int         `json:"count"`
	Amount types.Money `json:"amount"`
}

// DoctorMetrics is the per-doctor funnel across the forward chain.
type DoctorMetrics struct {
	DoctorID   id.ID  `json:"doctorId"`
	DoctorName string `json:"doctorName"`

	Received     Milestone `json:"received"`
	Used         Milestone `json:"used"`
	Submitted    Milestone `json:"submitted"`
	PaidByPayer  Milestone `json:"paidByPayer"`
	PaidToDoctor Milestone `json:"paidToDoctor"`
}

// DoctorMetricsReport is the full per-doctor funnel report.
type DoctorMetricsReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Items       []DoctorMetrics `json:"items"`
}

// --- Status distribution ---

// StatusShare is one slice of the distribution.
type StatusShare struct {
	Status     voucher.Status `json:"status"`
	Label      string         `json:"label"`
	Count      int            `json:"count"`
	Percentage float64        `json:"percentage"`
}

// StatusDistribution covers only vouchers that entered the tracked
// workflow: pending_delivery and cancelled are excluded from the
// denominator.
type StatusDistribution struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Total       int           `json:"total"`
	Shares      []StatusShare `json:"shares"`
}

// --- Expiring vouchers ---

// ExpiringVoucher annotates a voucher with its signed days to expiry
// (negative means already expired).
type ExpiringVoucher struct {
	Voucher         *voucher.Voucher `json:"voucher"`
	DaysUntilExpiry int              `json:"daysUntilExpiry"`
}

// ExpiringReport lists vouchers at expiry risk within the horizon.
// Settled (paid_to_doctor) and cancelled vouchers are irrelevant to
// expiry risk and excluded.
type ExpiringReport struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	HorizonDays int               `json:"horizonDays"`
	Items       []ExpiringVoucher `json:"items"`
}
