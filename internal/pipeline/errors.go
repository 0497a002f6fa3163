package pipeline

import "fmt"

// Stage identifies where in the run a fatal error occurred.
type Stage string

const (
	StageInventory Stage = "inventory"
	StagePages     Stage = "pages"
	StageAssembly  Stage = "assembly"
	StageCleanup   Stage = "cleanup"
)

// Error is a fatal pipeline error carrying the stage and, for per-page
// failures, the offending page.
type Error struct {
	Stage Stage
	Page  string
	Err   error
}

func (e *Error) Error() string {
	if e.Page != "" {
		return fmt.Sprintf("%s: page %s: %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
