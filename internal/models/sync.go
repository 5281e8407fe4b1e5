package models

// SyncOutcome classifies the result of syncing one item so a batch
// driver can branch on failure kind instead of parsing messages.
type SyncOutcome string

const (
	SyncOK            SyncOutcome = "ok"
	SyncFetchFailed   SyncOutcome = "fetch_failed"
	SyncPersistFailed SyncOutcome = "persist_failed"
)

// SyncResult is the per-item outcome of one sync attempt.
type SyncResult struct {
	URL     string      `json:"url"`
	Outcome SyncOutcome `json:"outcome"`
	Message string      `json:"message,omitempty"` // failure reason, empty on success
}

// OK reports whether the item was fully synced.
func (r SyncResult) OK() bool { return r.Outcome == SyncOK }

// BatchSummary aggregates the per-item results of one batch run.
type BatchSummary struct {
	Total         int `json:"total"`
	Synced        int `json:"synced"`
	FetchFailed   int `json:"fetch_failed"`
	PersistFailed int `json:"persist_failed"`
}

// Add folds a single result into the summary.
func (s *BatchSummary) Add(r SyncResult) {
	s.Total++
	switch r.Outcome {
	case SyncOK:
		s.Synced++
	case SyncFetchFailed:
		s.FetchFailed++
	case SyncPersistFailed:
		s.PersistFailed++
	}
}
