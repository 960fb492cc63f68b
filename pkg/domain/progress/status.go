// Package progress holds the status lifecycle shared by missions and quests.
package progress

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a mission or a quest.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusStopped    Status = "STOPPED"
)

// allowedTransitions maps a status to the statuses reachable from it.
// Self transitions are legal for every status.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusPending, StatusInProgress, StatusComplete},
	StatusInProgress: {StatusInProgress, StatusComplete, StatusStopped},
	StatusComplete:   {StatusPending, StatusComplete},
	StatusStopped:    {StatusInProgress, StatusStopped},
}

// AllStatuses returns every status in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusPending,
		StatusInProgress,
		StatusComplete,
		StatusStopped,
	}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusComplete, StatusStopped:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the transition table allows s -> target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the statuses reachable from s.
func (s Status) ValidTransitions() []Status {
	targets := allowedTransitions[s]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// IsComplete returns true for COMPLETE.
func (s Status) IsComplete() bool {
	return s == StatusComplete
}

// IsInProgress returns true for IN_PROGRESS.
func (s Status) IsInProgress() bool {
	return s == StatusInProgress
}

// ParseStatus parses a status name. Matching is case-insensitive and
// surrounding whitespace is ignored.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := Status(str)
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, str)
	}
	*s = status
	return nil
}
