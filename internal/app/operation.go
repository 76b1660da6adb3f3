package app

import (
	"strings"
	"time"
)

// Operation describes one CLI invocation. Its ID tags every log line the
// invocation writes.
type Operation struct {
	ID         string
	Name       string
	Parameters []string
	Started    time.Time
	Status     string // "success" or "error"
}

// NewOperation creates an operation started at now.
func NewOperation(name string, params []string, now time.Time) *Operation {
	return &Operation{
		ID:         now.UTC().Format("20060102T150405Z"),
		Name:       name,
		Parameters: params,
		Started:    now,
		Status:     "success",
	}
}

// Fail marks the operation as failed when err is not nil. It returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// LogArgs returns the key/value pairs describing the operation.
func (op *Operation) LogArgs(now time.Time) []any {
	return []any{
		"operation", op.Name,
		"params", strings.Join(op.Parameters, " "),
		"status", op.Status,
		"duration", now.Sub(op.Started).Round(time.Millisecond).String(),
	}
}
