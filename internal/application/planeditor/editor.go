package planeditor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"academy/internal/domain/association"
	"academy/internal/domain/course"
)

// Source is the backend the editor loads from and saves to.
type Source interface {
	ListCourses(ctx context.Context) ([]course.Course, error)
	ListPlanCourses(ctx context.Context, planID string) ([]course.Course, error)
	ApplyPlanCourses(ctx context.Context, planID string, d association.Diff) (string, error)
}

// Status is the editor lifecycle state.
type Status int

// Status constants
const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusReady
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	}
	return "unloaded"
}

// Editor errors
var (
	ErrNoPlanID      = errors.New("save the plan first to associate courses")
	ErrNotReady      = errors.New("course editor is not loaded")
	ErrStaleResponse = errors.New("response superseded by a newer request")
)

// DefaultSaveFailureMessage is shown when the server rejects a save without a message.
const DefaultSaveFailureMessage = "failed to save course associations"

// LoadError reports that loading the course lists failed.
type LoadError struct {
	Err error
}

// Error implements error.
func (e *LoadError) Error() string {
	return "failed to load courses: " + e.Err.Error()
}

// Unwrap returns the underlying fetch error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError reports that applying the diff failed. Pending changes are kept.
type SaveError struct {
	Message string
	Err     error
}

// Error implements error.
func (e *SaveError) Error() string {
	return "failed to save course associations: " + e.Message
}

// Unwrap returns the underlying submit error.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// SaveResult describes a completed save.
type SaveResult struct {
	NothingToSave bool
	Applied       association.Diff
	Message       string
}

// Editor drives one plan's course association tab.
// Load and Save release the lock while waiting on the source; each takes a request
// token so that a response belonging to a superseded request is dropped.
type Editor struct {
	mu     sync.Mutex
	planID string
	source Source
	status Status
	state  *association.State
	gen    uint64
}

// New creates an unloaded editor for planID. An empty planID means the plan is not saved yet.
func New(planID string, source Source) *Editor {
	return &Editor{planID: planID, source: source}
}

// PlanID returns the plan this editor belongs to.
func (e *Editor) PlanID() string {
	return e.planID
}

// Status returns the current lifecycle status.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Load fetches all courses and the plan's linked courses and partitions them.
// PRE: none
// POST: On success status is Ready with a fresh baseline; on failure status is Unloaded and
// no partial state is kept
func (e *Editor) Load(ctx context.Context) error {
	if e.planID == "" {
		return ErrNoPlanID
	}

	e.mu.Lock()
	e.gen++
	token := e.gen
	e.status = StatusLoading
	e.mu.Unlock()

	all, err := e.source.ListCourses(ctx)
	var linked []course.Course
	if err == nil {
		linked, err = e.source.ListPlanCourses(ctx, e.planID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.gen {
		slog.Debug("plan_editor_event", "event", "stale_load_dropped", "plan_id", e.planID)
		return ErrStaleResponse
	}
	if err != nil {
		e.status = StatusUnloaded
		e.state = nil
		slog.Warn("plan_editor_event", "event", "load_failed", "plan_id", e.planID, "error", err)
		return &LoadError{Err: err}
	}
	e.state = association.New(all, linked)
	e.status = StatusReady
	slog.Info("plan_editor_event", "event", "loaded", "plan_id", e.planID,
		"available", e.state.Len(association.Available), "linked", e.state.Len(association.Linked))
	return nil
}

// Reset discards all in-memory state, as when the operator navigates away.
// Any in-flight Load or Save is invalidated.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = nil
	e.status = StatusUnloaded
}

func (e *Editor) ready() error {
	if e.status != StatusReady || e.state == nil {
		return ErrNotReady
	}
	return nil
}

// ToggleSelect flips the selection of id in the named list.
func (e *Editor) ToggleSelect(l association.List, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.ToggleSelect(l, id)
}

// MoveSelected moves the selected courses out of the named list.
func (e *Editor) MoveSelected(from association.List) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return 0, err
	}
	return e.state.MoveSelected(from)
}

// Diff returns the pending change against the baseline.
func (e *Editor) Diff() (association.Diff, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return association.Diff{}, err
	}
	return e.state.Diff(), nil
}

// Baseline returns the sorted linked ids as last loaded or saved.
func (e *Editor) Baseline() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.state.BaselineIDs(), nil
}

// Dirty reports whether there are unsaved changes.
func (e *Editor) Dirty() bool {
	d, err := e.Diff()
	return err == nil && !d.IsEmpty()
}

// Discard returns the lists to the baseline partition.
func (e *Editor) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	e.state.Discard()
	return nil
}

// Save submits the pending diff. An empty diff succeeds without contacting the source.
// PRE: editor is Ready
// POST: On success the submitted diff is folded into the baseline; on failure state is unchanged
func (e *Editor) Save(ctx context.Context) (SaveResult, error) {
	e.mu.Lock()
	if err := e.ready(); err != nil {
		e.mu.Unlock()
		return SaveResult{}, err
	}
	d := e.state.Diff()
	token := e.gen
	e.mu.Unlock()

	if d.IsEmpty() {
		return SaveResult{NothingToSave: true}, nil
	}

	msg, err := e.source.ApplyPlanCourses(ctx, e.planID, d)
	if err != nil {
		message := DefaultSaveFailureMessage
		var withMsg interface{ UserMessage() string }
		if errors.As(err, &withMsg) && withMsg.UserMessage() != "" {
			message = withMsg.UserMessage()
		}
		slog.Warn("plan_editor_event", "event", "save_failed", "plan_id", e.planID, "error", err)
		return SaveResult{}, &SaveError{Message: message, Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if token != e.gen || e.state == nil {
		return SaveResult{}, fmt.Errorf("save applied but editor was reloaded: %w", ErrStaleResponse)
	}
	e.state.Commit(d)
	slog.Info("plan_editor_event", "event", "saved", "plan_id", e.planID, "added", len(d.Add), "removed", len(d.Remove))
	return SaveResult{Applied: d, Message: msg}, nil
}
