// Package progress converts raw polling observations into a render-ready
// progress summary (fraction, rate, remaining time).
//
// The rate is always computed from the two most recent distinct samples, not
// from elapsed-since-start. Elapsed-since-start biases the estimate when a
// long task speeds up or slows down, and produces wildly wrong ETAs when a
// status check is re-invoked mid-export: the process start is recent, but
// the task has been running for a while.
package progress

import "time"

// Sample is one immutable observation of task progress. Completed and Total
// are item counts in poll mode and byte counts in transfer mode. Total == 0
// means the total is unknown.
type Sample struct {
	At        time.Time
	Completed int64
	Total     int64
}

// View is the render-ready summary derived from samples. Each value carries
// its own known-flag: an unknown fraction renders as an indeterminate
// indicator, an unknown remaining as a placeholder.
type View struct {
	Completed int64
	Total     int64

	Fraction      float64
	FractionKnown bool

	// Rate is units per second (items in poll mode, bytes in transfer mode).
	Rate      float64
	RateKnown bool

	Remaining      time.Duration
	RemainingKnown bool
}

// Estimator accumulates samples for one task or one transfer. The zero value
// is ready to use. Not safe for concurrent use; the control flow is
// single-threaded by design.
type Estimator struct {
	hasPrev bool
	prev    Sample
}

// Observe folds in the next sample and returns the updated view.
//
// Samples arriving with a timestamp equal to the previous one yield an
// unknown rate (never a division by zero) and do not replace the previous
// sample, so the next distinct sample still has a usable baseline.
func (e *Estimator) Observe(s Sample) View {
	v := View{Completed: s.Completed, Total: s.Total}

	if s.Total > 0 {
		v.Fraction = float64(s.Completed) / float64(s.Total)
		if v.Fraction > 1 {
			v.Fraction = 1
		}
		if v.Fraction < 0 {
			v.Fraction = 0
		}
		v.FractionKnown = true
	}

	if !e.hasPrev {
		e.hasPrev = true
		e.prev = s
		return v
	}

	dt := s.At.Sub(e.prev.At)
	if dt <= 0 {
		return v
	}

	v.Rate = float64(s.Completed-e.prev.Completed) / dt.Seconds()
	v.RateKnown = true
	e.prev = s

	// No forward progress (or a server-reported regression) means remaining
	// time cannot be estimated; report unknown rather than negative or
	// infinite.
	if v.Rate > 0 && s.Total > 0 {
		left := s.Total - s.Completed
		if left < 0 {
			left = 0
		}
		v.Remaining = time.Duration(float64(left) / v.Rate * float64(time.Second))
		v.RemainingKnown = true
	}

	return v
}
