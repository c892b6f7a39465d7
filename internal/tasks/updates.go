package tasks

import "fmt"

// ProgressUpdate represents a progress event during a migration run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Kind    Kind   // Entity kind the update belongs to
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Outcome for entity updates, error on fetch failure, *KindReport when a kind finishes
}

// Operation phase enumeration
type Phase int

const (
	FetchEntities Phase = iota
	MigrateEntities
	KindFinished
)

func (p Phase) String() string {
	switch p {
	case FetchEntities:
		return "fetch"
	case MigrateEntities:
		return "migrate"
	case KindFinished:
		return "finished"
	default:
		return ""
	}
}

func fetchingUpdate(kind Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntities,
		Kind:    kind,
		Message: fmt.Sprintf("Fetching %s from WordPress...", kind),
	}
}

func fetchedUpdate(kind Kind, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntities,
		Kind:    kind,
		Total:   total,
		Message: fmt.Sprintf("Found %d %s", total, kind),
	}
}

func fetchFailedUpdate(kind Kind, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEntities,
		Kind:    kind,
		Message: fmt.Sprintf("✗ Could not fetch %s: %v", kind, err),
		Data:    err,
	}
}

func entityUpdate(step, total int, o Outcome) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, o.Label)
	if o.Failed() {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, o.Label, o.Error)
	}
	return ProgressUpdate{
		Phase:   MigrateEntities,
		Kind:    o.Kind,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    o,
	}
}

func kindFinishedUpdate(r *KindReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   KindFinished,
		Kind:    r.Kind,
		Step:    r.Total,
		Total:   r.Total,
		Message: fmt.Sprintf("%s: %d submitted, %d failed", r.Kind, r.Submitted, r.Failed),
		Data:    r,
	}
}
