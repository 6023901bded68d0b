package entity

import "time"

// StoredObject is a file held by the remote storage provider.
// The facade never persists it; it is reshaped and returned per request.
type StoredObject struct {
	ID             string
	Name           string
	Size           int64 // 0 when the provider does not report a size
	CreatedTime    time.Time
	MimeType       string
	MD5Checksum    string
	ThumbnailLink  string
	WebViewLink    string
	WebContentLink string
	Parents        []string
}

// InContainer reports whether the object lists containerID among its parents.
func (o *StoredObject) InContainer(containerID string) bool {
	for _, p := range o.Parents {
		if p == containerID {
			return true
		}
	}
	return false
}

// Quota is a storage quota snapshot as reported by the provider.
type Quota struct {
	Limit        int64
	Usage        int64
	UsageInDrive int64
}

// DeleteResult is the outcome of deleting one object in a batch
type DeleteResult struct {
	ID  string
	Err error
}

// DeleteSummary aggregates the ordered per-id results of a batch delete.
type DeleteSummary struct {
	Results []DeleteResult
	Deleted int
	Failed  int
}

// NewDeleteSummary derives the counts from results.
func NewDeleteSummary(results []DeleteResult) *DeleteSummary {
	summary := &DeleteSummary{Results: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Deleted++
		}
	}
	return summary
}
