package faillog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends failed-order records to a plain text file, one line per
// failure. The file is an operational audit trail and is never read back
// by the service.
type Logger struct {
	mu   sync.Mutex
	path string
}

// New creates a failure logger writing to the given path
func New(path string) *Logger {
	return &Logger{path: path}
}

// Write appends one failure line. Best effort: the caller decides whether
// a write error is worth more than a log warning.
func (l *Logger) Write(orderID int64, orderNumber int64, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open failure log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\torder_id=%d\torder_number=%d\terror=%s\n",
		time.Now().UTC().Format(time.RFC3339), orderID, orderNumber, message)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write failure log: %w", err)
	}

	return nil
}
