package output

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gofrs/flock"

	"github.com/torosent/recurl/internal/metrics"
)

// Record is one line in a shared run-history file.
type Record struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Launched   int64     `json:"launched"`
	DurationMs int64     `json:"duration_ms"`
	metrics.Summary
}

// AppendRecord appends the record to path as one JSON line, holding an
// exclusive file lock so concurrent runs sharing a history file do not
// interleave records.
func AppendRecord(path string, rec Record) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(rec)
}
