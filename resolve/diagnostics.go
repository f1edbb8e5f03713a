package resolve

import (
	"sync"
	"time"
)

// ImportErrorRecord describes one failed resolution.
type ImportErrorRecord struct {
	Specifier string `json:"specifier"`
	Message   string `json:"error"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// DiagnosticLog is an append-only list of import failures. It is safe for
// concurrent use so embedders may read it while scripts run.
type DiagnosticLog struct {
	records []ImportErrorRecord
	mu      sync.RWMutex
}

func NewDiagnosticLog() *DiagnosticLog {
	return &DiagnosticLog{}
}

func (l *DiagnosticLog) Append(specifier, message string, at time.Time) ImportErrorRecord {
	rec := ImportErrorRecord{
		Specifier: specifier,
		Message:   message,
		Timestamp: at.UnixMilli(),
	}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return rec
}

// Records returns a copy of every record in append order.
func (l *DiagnosticLog) Records() []ImportErrorRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ImportErrorRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *DiagnosticLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
