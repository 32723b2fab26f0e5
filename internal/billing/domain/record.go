package domain

// Record is the persisted entitlement state of one user.
type Record struct {
	UserID          string
	MaxQuota        Quota
	UsedCount       int
	LastPackageName string
}

// ZeroRecord is the state of a user with nothing stored.
func ZeroRecord(userID string) Record {
	return Record{UserID: userID}
}

// BaselineRecord is the free allotment a reset restores.
func BaselineRecord(userID string) Record {
	return Record{
		UserID:          userID,
		MaxQuota:        Limited(1),
		UsedCount:       0,
		LastPackageName: PackageFree,
	}
}

// Remaining returns how many consumptions are left.
func (r Record) Remaining() Quota {
	if r.MaxQuota.IsUnlimited() {
		return Unlimited()
	}
	return Limited(r.MaxQuota.Count() - r.UsedCount)
}

// Consume returns the record after one consumption and whether it was allowed.
// A refused consumption returns r unchanged.
func (r Record) Consume() (Record, bool) {
	if !r.MaxQuota.Allows(r.UsedCount) {
		return r, false
	}
	r.UsedCount++
	return r, true
}

// Grant adds the package allowance and records the package name.
func (r Record) Grant(pkg Package) Record {
	r.MaxQuota = r.MaxQuota.Add(pkg.Quota)
	r.LastPackageName = pkg.Name
	return r
}

// Snapshot is the read model returned to callers.
type Snapshot struct {
	UserID          string
	MaxQuota        Quota
	UsedCount       int
	Remaining       Quota
	LastPackageName string
}

// Snapshot derives the read model.
func (r Record) Snapshot() Snapshot {
	return Snapshot{
		UserID:          r.UserID,
		MaxQuota:        r.MaxQuota,
		UsedCount:       r.UsedCount,
		Remaining:       r.Remaining(),
		LastPackageName: r.LastPackageName,
	}
}
