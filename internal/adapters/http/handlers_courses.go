package web

import (
	"errors"
	"net/http"

	"academy/internal/application/orchestrators"
	"academy/internal/domain/course"
)

// courseRequest is the create body. It has no custom decoding, so strictDecode
// rejects unknown fields; a missing isActive means active.
type courseRequest struct {
	Name        string `json:"name"`
	Level       string `json:"level"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func (req courseRequest) course() course.Course {
	c := course.Course{Name: req.Name, Level: req.Level, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return c
}

// handleAPICourses handles GET (list all courses) and POST (create) for /api/courses.
func handleAPICourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		list, err := stores.CourseStore.List(ctx)
		if err != nil {
			internalError(w, err)
			return
		}
		if list == nil {
			list = []course.Course{}
		}
		writeData(w, http.StatusOK, list)

	case http.MethodPost:
		var input courseRequest
		if err := strictDecode(r, &input); err != nil {
			writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		created, err := orchestrators.ExecuteCreateCourse(ctx, input.course(), orchestrators.CreateCourseDeps{
			CourseStore: stores.CourseStore,
			GenerateID:  generateID,
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
