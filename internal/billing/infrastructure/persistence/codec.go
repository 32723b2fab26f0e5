package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hirelane/hirelane/internal/billing/domain"
)

// UnlimitedValue is the stored form of an unlimited quota.
const UnlimitedValue = "Infinity"

const (
	maxKeyPrefix         = "cv_download_max_"
	countKeyPrefix       = "cv_download_count_"
	lastPackageKeyPrefix = "cv_last_package_"
	grantOrderKeyPrefix  = "cv_grant_order_"
)

// MaxKey is the key holding a user's total allowance.
func MaxKey(userID string) string { return maxKeyPrefix + userID }

// CountKey is the key holding a user's consumption count.
func CountKey(userID string) string { return countKeyPrefix + userID }

// LastPackageKey is the key holding the last granted package name.
func LastPackageKey(userID string) string { return lastPackageKeyPrefix + userID }

// GrantOrderKey marks an order code as granted. The order code is the only
// variable part, so distinct codes never share a key; the value is the id of
// the user the order was granted to.
func GrantOrderKey(orderCode string) string {
	return grantOrderKeyPrefix + orderCode
}

func recordKeys(userID string) []string {
	return []string{MaxKey(userID), CountKey(userID), LastPackageKey(userID)}
}

// EncodeQuota renders a quota in its stored form.
func EncodeQuota(q domain.Quota) string {
	if q.IsUnlimited() {
		return UnlimitedValue
	}
	return strconv.Itoa(q.Count())
}

// DecodeQuota parses a stored quota.
func DecodeQuota(s string) (domain.Quota, error) {
	s = strings.TrimSpace(s)
	if s == UnlimitedValue {
		return domain.Unlimited(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return domain.Quota{}, fmt.Errorf("quota %q", s)
	}
	return domain.Limited(n), nil
}

func decodeRecord(userID string, values map[string]string) (domain.Record, error) {
	rec := domain.ZeroRecord(userID)

	if raw, ok := values[MaxKey(userID)]; ok {
		q, err := DecodeQuota(raw)
		if err != nil {
			return rec, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, MaxKey(userID), err)
		}
		rec.MaxQuota = q
	}

	if raw, ok := values[CountKey(userID)]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return rec, fmt.Errorf("%w: %s: count %q", domain.ErrCorruptRecord, CountKey(userID), raw)
		}
		rec.UsedCount = n
	}

	rec.LastPackageName = values[LastPackageKey(userID)]
	return rec, nil
}

func encodeRecord(rec domain.Record) map[string]string {
	return map[string]string{
		MaxKey(rec.UserID):         EncodeQuota(rec.MaxQuota),
		CountKey(rec.UserID):       strconv.Itoa(rec.UsedCount),
		LastPackageKey(rec.UserID): rec.LastPackageName,
	}
}
