package agent

import (
	"fmt"

	"github.com/askdb-labs/askdb/internal/sqlguard"
)

// UnsafeError terminates a session immediately: the generated statement
// tripped the safety gate and must never reach the database.
type UnsafeError struct {
	SQL  string
	Gate *sqlguard.UnsafeError
}

func (e *UnsafeError) Error() string {
	return fmt.Sprintf("unsafe SQL detected: %s", e.Gate.Reason)
}

func (e *UnsafeError) Unwrap() error {
	return e.Gate
}

// ExhaustedError reports that every attempt in the budget failed.
type ExhaustedError struct {
	Attempts int
	LastSQL  string
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}
