package entity

// Account is one of the two logical "servers" the facade multiplexes.
type Account struct {
	Index        int
	Name         string
	RefreshToken string
	FolderID     string
}

// HasCredential reports whether a refresh token is configured.
func (a Account) HasCredential() bool {
	return a.RefreshToken != ""
}

// FolderStats is the public usage summary for one folder
type FolderStats struct {
	TotalFiles int
	UsedBytes  int64
	LimitBytes int64
}

// Percent returns used/limit*100, or 0 when the limit is 0.
func (s FolderStats) Percent() float64 {
	if s.LimitBytes <= 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(s.LimitBytes) * 100
}

// ServerUsage is the per-account quota breakdown reported to admins.
// All figures are raw bytes.
type ServerUsage struct {
	Name       string
	Limit      int64
	Total      int64
	Web        int64
	OtherDrive int64
	Mail       int64
	Error      string
}
