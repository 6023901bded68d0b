package entity

const (
	// GiB is one gibibyte in bytes
	GiB int64 = 1024 * 1024 * 1024

	// DefaultQuotaLimit is the free-tier ceiling used when no real limit is known.
	DefaultQuotaLimit = 15 * GiB

	// Account indexes
	PrimaryAccount   = 0
	SecondaryAccount = 1
)

// Provider listing caps
const (
	PublicListLimit = 100
	AdminListLimit  = 1000
	StatsListLimit  = 1000
)
