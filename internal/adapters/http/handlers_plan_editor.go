package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"academy/internal/adapters/http/middleware"
	"academy/internal/application/orchestrators"
	"academy/internal/application/planeditor"
	"academy/internal/domain/association"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// NewPlanID is the path segment used for a plan that has not been saved yet.
const NewPlanID = "new"

// EditorIdleTimeout is how long an untouched editor is kept.
const EditorIdleTimeout = 30 * time.Minute

type editorKey struct {
	operator string
	planID   string
}

type editorEntry struct {
	editor   *planeditor.Editor
	lastUsed time.Time
}

// EditorRegistry holds one editor per operator session and plan.
type EditorRegistry struct {
	mu      sync.Mutex
	editors map[editorKey]*editorEntry
	source  planeditor.Source
	idle    time.Duration
	now     func() time.Time
}

// NewEditorRegistry creates a registry whose editors load from source.
func NewEditorRegistry(source planeditor.Source, idle time.Duration) *EditorRegistry {
	return &EditorRegistry{
		editors: make(map[editorKey]*editorEntry),
		source:  source,
		idle:    idle,
		now:     time.Now,
	}
}

// Get returns the operator's editor for planID, creating an unloaded one if needed.
// Idle editors are evicted on the way.
func (reg *EditorRegistry) Get(operator, planID string) *planeditor.Editor {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	now := reg.now()
	reg.sweepLocked(now)
	key := editorKey{operator: operator, planID: planID}
	entry, ok := reg.editors[key]
	if !ok {
		entry = &editorEntry{editor: planeditor.New(planID, reg.source)}
		reg.editors[key] = entry
	}
	entry.lastUsed = now
	return entry.editor
}

// Drop resets and forgets the operator's editor for planID.
func (reg *EditorRegistry) Drop(operator, planID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	key := editorKey{operator: operator, planID: planID}
	if entry, ok := reg.editors[key]; ok {
		entry.editor.Reset()
		delete(reg.editors, key)
	}
}

// Len returns the number of held editors.
func (reg *EditorRegistry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.editors)
}

func (reg *EditorRegistry) sweepLocked(now time.Time) {
	for key, entry := range reg.editors {
		if now.Sub(entry.lastUsed) > reg.idle {
			entry.editor.Reset()
			delete(reg.editors, key)
		}
	}
}

// userError carries a message safe to show the operator.
type userError struct {
	err error
}

func (e userError) Error() string       { return e.err.Error() }
func (e userError) Unwrap() error       { return e.err }
func (e userError) UserMessage() string { return e.err.Error() }

// localSource serves the editor straight from the stores, in process.
type localSource struct{}

// ListCourses implements planeditor.Source.
func (localSource) ListCourses(ctx context.Context) ([]course.Course, error) {
	return stores.CourseStore.List(ctx)
}

// ListPlanCourses implements planeditor.Source.
func (localSource) ListPlanCourses(ctx context.Context, planID string) ([]course.Course, error) {
	if _, err := stores.PlanStore.GetByID(ctx, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orchestrators.ErrPlanNotFound
		}
		return nil, err
	}
	return stores.PlanStore.ListCourses(ctx, planID)
}

// ApplyPlanCourses implements planeditor.Source.
func (localSource) ApplyPlanCourses(ctx context.Context, planID string, d association.Diff) (string, error) {
	res, err := orchestrators.ExecuteApplyPlanCourses(ctx, orchestrators.ApplyPlanCoursesInput{
		PlanID: planID,
		Add:    d.Add,
		Remove: d.Remove,
	}, orchestrators.ApplyPlanCoursesDeps{
		PlanStore:   stores.PlanStore,
		CourseStore: stores.CourseStore,
		Sender:      emailSender,
		NotifyTo:    notifyTo,
	})
	if err != nil {
		if status, _ := applyErrorStatus(err); status != http.StatusInternalServerError {
			return "", userError{err: err}
		}
		return "", err
	}
	return res.Message(), nil
}

// --- flash messages ---

const flashCookie = "academy_flash"

type flash struct {
	Kind    string // "success" or "error"
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + "|" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the flash cookie.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok || msg == "" {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

// --- pages ---

type plansPage struct {
	Plans []plan.Plan
	Flash *flash
}

// handlePlansPage lists billing plans with links to their course editors.
func handlePlansPage(w http.ResponseWriter, r *http.Request) {
	list, err := stores.PlanStore.List(r.Context())
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "plans.html", plansPage{Plans: list, Flash: popFlash(w, r)})
}

type planCoursesPage struct {
	Plan      plan.Plan
	NoPlan    string
	LoadError string
	View      planeditor.View
	Flash     *flash
	Query     string // filter query string carried through form posts
}

func operatorToken(r *http.Request) string {
	op, _ := middleware.OperatorFromContext(r.Context())
	return op.Token
}

func filterQuery(qa, ql string) string {
	v := url.Values{}
	if qa != "" {
		v.Set("qa", qa)
	}
	if ql != "" {
		v.Set("ql", ql)
	}
	return v.Encode()
}

// handlePlanCoursesPage renders the two-list editor, loading it on first visit.
func handlePlanCoursesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID := r.PathValue("planId")
	qa, ql := r.URL.Query().Get("qa"), r.URL.Query().Get("ql")
	page := planCoursesPage{Flash: popFlash(w, r), Query: filterQuery(qa, ql)}

	if planID == NewPlanID {
		page.NoPlan = planeditor.ErrNoPlanID.Error()
		renderTemplate(w, r, http.StatusOK, "plan_courses.html", page)
		return
	}

	p, err := stores.PlanStore.GetByID(ctx, planID)
	if errors.Is(err, sql.ErrNoRows) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	page.Plan = p

	ed := editors.Get(operatorToken(r), planID)
	if ed.Status() != planeditor.StatusReady {
		if err := ed.Load(ctx); err != nil && !errors.Is(err, planeditor.ErrStaleResponse) {
			page.LoadError = editorErrorMessage(err)
		}
	}
	page.View = ed.View(qa, ql)
	renderTemplate(w, r, http.StatusOK, "plan_courses.html", page)
}

// handlePlanCoursesAction applies one editor action and redirects back to the page.
func handlePlanCoursesAction(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("planId")
	action := r.PathValue("action")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	back := "/plans/" + url.PathEscape(planID) + "/courses"
	if q := filterQuery(r.PostForm.Get("qa"), r.PostForm.Get("ql")); q != "" {
		back += "?" + q
	}

	if planID == NewPlanID {
		setFlash(w, "error", planeditor.ErrNoPlanID.Error())
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	token := operatorToken(r)
	if action == "close" {
		editors.Drop(token, planID)
		http.Redirect(w, r, "/plans", http.StatusSeeOther)
		return
	}

	ed := editors.Get(token, planID)
	msg, err := runEditorAction(r.Context(), r.PostForm, ed, action)
	switch {
	case errors.Is(err, errUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		setFlash(w, "error", editorErrorMessage(err))
	case msg != "":
		setFlash(w, "success", msg)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

var errUnknownAction = errors.New("unknown editor action")

// runEditorAction applies action to ed and returns a message for the operator, if any.
func runEditorAction(ctx context.Context, form url.Values, ed *planeditor.Editor, action string) (string, error) {
	switch action {
	case "select":
		l, err := association.ParseList(form.Get("list"))
		if err != nil {
			return "", err
		}
		_, err = ed.ToggleSelect(l, form.Get("id"))
		return "", err
	case "move":
		l, err := association.ParseList(form.Get("list"))
		if err != nil {
			return "", err
		}
		_, err = ed.MoveSelected(l)
		return "", err
	case "save":
		res, err := ed.Save(ctx)
		var saveErr *planeditor.SaveError
		switch {
		case errors.As(err, &saveErr):
			outcome := saveOutcomeError
			if errors.As(err, new(userError)) {
				outcome = saveOutcomeRejected
			}
			recordSave(outcome, association.Diff{})
			return "", err
		case err != nil:
			return "", err
		case res.NothingToSave:
			recordSave(saveOutcomeEmpty, association.Diff{})
			return "no changes to save", nil
		}
		recordSave(saveOutcomeApplied, res.Applied)
		return res.Message, nil
	case "discard":
		return "", ed.Discard()
	case "reload":
		ed.Reset()
		return "", ed.Load(ctx)
	}
	return "", errUnknownAction
}

func editorErrorMessage(err error) string {
	var saveErr *planeditor.SaveError
	if errors.As(err, &saveErr) {
		return saveErr.Message
	}
	var loadErr *planeditor.LoadError
	if errors.As(err, &loadErr) {
		return "could not load courses, try reloading"
	}
	return err.Error()
}
