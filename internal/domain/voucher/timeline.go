package voucher

import (
	"sort"
	"time"
)

// TimelineStep is one rendered step of a voucher's progress timeline.
type TimelineStep struct {
	Status Status `json:"status"`
	Label  string `json:"label"`

	// At is nil when no timestamp is known for the step (vouchers
	// predating the audit log, or future steps).
	At *time.Time `json:"at,omitempty"`

	// Reached marks steps the voucher actually passed through. Future
	// chain states are rendered with Reached=false for progress
	// visualization; they are not factual data.
	Reached bool `json:"reached"`

	// Reason carries the cancellation reason on the cancelled step.
	Reason string `json:"reason,omitempty"`
}

// BuildTimeline reconstructs the ordered status timeline for a voucher
// from its append-only history. The log is the single source of truth;
// where it has gaps (vouchers created before logging existed, or
// created directly in a non-initial status) the voucher row's own
// fields fill in with degraded timestamps.
//
// The result is recomputed fresh on every read; nothing is persisted.
func BuildTimeline(v *Voucher, entries []HistoryEntry) []TimelineStep {
	ordered := make([]HistoryEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ChangedAt.Before(ordered[j].ChangedAt)
	})

	steps := make([]TimelineStep, 0, len(Chain())+1)
	seen := make(map[Status]bool)

	appendReached := func(s Status, at *time.Time) {
		if seen[s] {
			return
		}
		seen[s] = true
		steps = append(steps, TimelineStep{
			Status:  s,
			Label:   s.Meta().Label,
			At:      at,
			Reached: true,
		})
	}

	// Cancellation entries are rendered apart from the forward chain.
	var cancelEntry *HistoryEntry

	// 1. Initial state: the entry with a nil previous status if the log
	// has one, otherwise the voucher's current status at creation time.
	start := 0
	if len(ordered) > 0 && ordered[0].PreviousStatus == nil {
		first := ordered[0]
		if first.NewStatus == StatusCancelled {
			cancelEntry = &first
		} else {
			at := first.ChangedAt
			appendReached(first.NewStatus, &at)
		}
		start = 1
	} else if v.Status != StatusCancelled {
		at := v.CreatedAt
		appendReached(v.Status, &at)
	}

	// 2. Walk the remaining entries in order.
	for i := start; i < len(ordered); i++ {
		e := ordered[i]
		if e.NewStatus == StatusCancelled {
			cancelEntry = &ordered[i]
			continue
		}
		at := e.ChangedAt
		appendReached(e.NewStatus, &at)
	}

	// 3. The current status must appear even if no history row was ever
	// written for it; without a log entry no timestamp is known.
	if v.Status != StatusCancelled && !seen[v.Status] {
		appendReached(v.Status, nil)
	}

	// 4. Future states: follow the registry's next pointer from the
	// last reached chain state to a terminal or already-visited state.
	if len(steps) > 0 {
		last := steps[len(steps)-1].Status
		for {
			meta := last.Meta()
			if !meta.HasNext || seen[meta.Next] {
				break
			}
			seen[meta.Next] = true
			steps = append(steps, TimelineStep{
				Status:  meta.Next,
				Label:   meta.Next.Meta().Label,
				Reached: false,
			})
			last = meta.Next
		}
	}

	// 5. Cancelled vouchers get a distinct terminal marker after the
	// chain, with its own timestamp and reason.
	if v.Status == StatusCancelled {
		step := TimelineStep{
			Status:  StatusCancelled,
			Label:   StatusCancelled.Meta().Label,
			Reached: true,
		}
		if cancelEntry != nil {
			at := cancelEntry.ChangedAt
			step.At = &at
			step.Reason = cancelEntry.Reason
		}
		if step.Reason == "" && v.CancellationReason != nil {
			step.Reason = *v.CancellationReason
		}
		steps = append(steps, step)
	}

	return steps
}
