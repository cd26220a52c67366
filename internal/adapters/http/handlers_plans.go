package web

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"academy/internal/application/orchestrators"
	"academy/internal/domain/association"
	"academy/internal/domain/course"
	"academy/internal/domain/plan"
)

// handleAPIBillingPlans handles GET (list) and POST (create) for /api/billing-plans.
func handleAPIBillingPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		list, err := stores.PlanStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		if list == nil {
			list = []plan.Plan{}
		}
		writeData(w, http.StatusOK, list)

	case http.MethodPost:
		var input plan.Plan
		if err := strictDecode(r, &input); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := orchestrators.ExecuteCreatePlan(ctx, input, orchestrators.CreatePlanDeps{
			PlanStore:  stores.PlanStore,
			GenerateID: generateID,
		})
		if errors.Is(err, orchestrators.ErrInvalidInput) {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		writeData(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w)
	}
}

// handleAPIPlanCourses handles GET (linked courses) and POST (apply a diff) for /api/plans/{planId}/courses.
func handleAPIPlanCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID := r.PathValue("planId")

	switch r.Method {
	case http.MethodGet:
		if _, err := stores.PlanStore.GetByID(ctx, planID); errors.Is(err, sql.ErrNoRows) {
			writeAPIError(w, http.StatusNotFound, orchestrators.ErrPlanNotFound.Error())
			return
		} else if err != nil {
			internalError(w, err)
			return
		}
		list, err := stores.PlanStore.ListCourses(ctx, planID)
		if err != nil {
			internalError(w, err)
			return
		}
		if list == nil {
			list = []course.Course{}
		}
		writeData(w, http.StatusOK, list)

	case http.MethodPost:
		var diff association.Diff
		if err := strictDecode(r, &diff); err != nil {
			recordSave(saveOutcomeRejected, association.Diff{})
			writeAPIError(w, http.StatusBadRequest, "invalid JSON body: expected {add: string[], remove: string[]}")
			return
		}
		res, err := applyPlanCourses(r, planID, diff)
		if err != nil {
			status, msg := applyErrorStatus(err)
			if status == http.StatusInternalServerError {
				recordSave(saveOutcomeError, diff)
				internalError(w, err)
				return
			}
			recordSave(saveOutcomeRejected, diff)
			writeAPIError(w, status, msg)
			return
		}
		recordSave(saveOutcomeApplied, diff)
		writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: res.Message()})

	default:
		methodNotAllowed(w)
	}
}

func applyPlanCourses(r *http.Request, planID string, diff association.Diff) (orchestrators.ApplyPlanCoursesResult, error) {
	return orchestrators.ExecuteApplyPlanCourses(r.Context(), orchestrators.ApplyPlanCoursesInput{
		PlanID: planID,
		Add:    diff.Add,
		Remove: diff.Remove,
	}, orchestrators.ApplyPlanCoursesDeps{
		PlanStore:   stores.PlanStore,
		CourseStore: stores.CourseStore,
		Sender:      emailSender,
		NotifyTo:    notifyTo,
	})
}

// applyErrorStatus maps orchestrator errors to a status and client message.
func applyErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, orchestrators.ErrPlanNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, orchestrators.ErrEmptyPlanID),
		errors.Is(err, orchestrators.ErrUnknownCourse),
		errors.Is(err, orchestrators.ErrConflictingChange):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// handleAPIPerf returns the perf snapshot of the last window minutes (default 15).
func handleAPIPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeAPIError(w, http.StatusNotFound, "perf collection disabled")
		return
	}
	window := 15 * time.Minute
	if d, err := time.ParseDuration(r.URL.Query().Get("window")); err == nil && d > 0 {
		window = d
	}
	writeData(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-window), 10))
}
