package worker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DeadLetterEntry records a store write abandoned after all retries
type DeadLetterEntry struct {
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	Key           string    `json:"key"`
	Attempts      int       `json:"attempts"`
	Error         string    `json:"error,omitempty"`
}

// DeadLetterWriter appends entries to a JSON lines file
type DeadLetterWriter struct {
	file *os.File
	mu   sync.Mutex
}

// NewDeadLetterWriter opens (creating if needed) the dead-letter file at path
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, DeadLetterDirPermissions); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, err
	}
	return &DeadLetterWriter{file: f}, nil
}

// Write appends one entry
func (w *DeadLetterWriter) Write(key string, attempts int, lastErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     time.Now().UTC(),
		Key:           key,
		Attempts:      attempts,
	}
	if lastErr != nil {
		entry.Error = lastErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = w.file.Write(append(data, '\n'))
	return err
}

// Close closes the dead-letter file
func (w *DeadLetterWriter) Close() error {
	return w.file.Close()
}
