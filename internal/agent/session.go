package agent

import (
	"time"

	"github.com/google/uuid"
)

// Attempt records one pass through the generate-gate-execute loop.
type Attempt struct {
	Index int
	SQL   string
	Err   error
}

// Session accumulates the history of a single question.
type Session struct {
	ID       uuid.UUID
	Question string
	Started  time.Time
	Attempts []Attempt
}

func newSession(question string) *Session {
	return &Session{
		ID:       uuid.New(),
		Question: question,
		Started:  time.Now(),
	}
}

func (s *Session) record(sqlText string, err error) {
	s.Attempts = append(s.Attempts, Attempt{
		Index: len(s.Attempts) + 1,
		SQL:   sqlText,
		Err:   err,
	})
}

// LastAttempt returns the most recent attempt, or nil before the first.
func (s *Session) LastAttempt() *Attempt {
	if len(s.Attempts) == 0 {
		return nil
	}
	return &s.Attempts[len(s.Attempts)-1]
}
