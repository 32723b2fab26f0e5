package domain

import "strconv"

// Quota is a download allowance: either a finite count or unlimited.
// The zero value is a finite quota of 0.
type Quota struct {
	n         int
	unlimited bool
}

// Limited returns a finite quota of n. Negative values are clamped to 0.
func Limited(n int) Quota {
	if n < 0 {
		n = 0
	}
	return Quota{n: n}
}

// Unlimited returns the unlimited quota.
func Unlimited() Quota {
	return Quota{unlimited: true}
}

// IsUnlimited reports whether q has no upper bound.
func (q Quota) IsUnlimited() bool { return q.unlimited }

// Count returns the finite amount. It is meaningless when q is unlimited.
func (q Quota) Count() int { return q.n }

// Add sums two quotas. Unlimited absorbs anything.
func (q Quota) Add(other Quota) Quota {
	if q.unlimited || other.unlimited {
		return Unlimited()
	}
	return Limited(q.n + other.n)
}

// Allows reports whether used consumptions leave room for one more.
func (q Quota) Allows(used int) bool {
	return q.unlimited || used < q.n
}

// String renders q for display.
func (q Quota) String() string {
	if q.unlimited {
		return "unlimited"
	}
	return strconv.Itoa(q.n)
}
