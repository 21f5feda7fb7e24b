package sheets

import (
	"context"
	"sync"
)

// MockWriter is a ReportWriter that records what it was given.
type MockWriter struct {
	WriteFunc     func(ctx context.Context, report *Report) (string, error)
	Reports       []*Report
	SpreadsheetID string
	mu            sync.Mutex
}

// NewMockWriter creates a mock writer that reports the given spreadsheet id.
func NewMockWriter(spreadsheetID string) *MockWriter {
	return &MockWriter{SpreadsheetID: spreadsheetID}
}

// Write implements ReportWriter.
func (m *MockWriter) Write(ctx context.Context, report *Report) (string, error) {
	m.mu.Lock()
	m.Reports = append(m.Reports, report)
	fn := m.WriteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, report)
	}
	return m.SpreadsheetID, nil
}

// LastReport returns the most recent report, or nil.
func (m *MockWriter) LastReport() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Reports) == 0 {
		return nil
	}
	return m.Reports[len(m.Reports)-1]
}
