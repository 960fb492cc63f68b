package progress

// Outcome tags the result of an optimistic completion attempt. A parent that
// still has open children is not a failure, so it is reported here instead of
// as an error.
type Outcome int

const (
	// StillInProgress means the child was recorded but siblings remain open.
	StillInProgress Outcome = iota
	// Completed means the child was the last one and the parent is COMPLETE.
	Completed
)

func (o Outcome) String() string {
	if o == Completed {
		return "completed"
	}
	return "still_in_progress"
}
