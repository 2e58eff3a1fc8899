package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/tasktrack-be/internal/api/respond"
	"github.com/isdelr/tasktrack-be/internal/apperr"
	"github.com/isdelr/tasktrack-be/internal/auth"
	"github.com/isdelr/tasktrack-be/internal/models"
	"github.com/isdelr/tasktrack-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TaskHandler handles HTTP requests for the authenticated user's tasks.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTaskPayload defines the structure for task creation requests.
type CreateTaskPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List handles GET /tasks with an optional ?completed= filter. Only "true"
// selects completed tasks; any other non-empty value selects open ones.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v := raw == "true"
		completed = &v
	}

	tasks, err := h.service.ListTasks(r.Context(), userID, completed)
	if err != nil {
		h.fail(w, err, userID, "Failed to list tasks")
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]models.Task{"tasks": tasks})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload CreateTaskPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	task, err := h.service.CreateTask(r.Context(), userID, payload.Title, payload.Description)
	if err != nil {
		h.fail(w, err, userID, "Failed to create task")
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]models.Task{"task": task})
}

// Update handles PUT /tasks/{id}. Only the fields present in the body change.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	task, err := h.service.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		h.fail(w, err, userID, "Failed to update task")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]models.Task{"task": task})
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), userID, taskID); err != nil {
		h.fail(w, err, userID, "Failed to delete task")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) fail(w http.ResponseWriter, err error, userID int64, msg string) {
	if _, ok := apperr.As(err); !ok {
		log.Error().Err(err).Int64("user_id", userID).Msg(msg)
	}
	respond.Error(w, err)
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authorization token required")
	}
	return userID, ok
}

// taskIDParam parses {id}. Ids that cannot name a task are reported the same
// way as tasks that do not exist.
func taskIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Message(w, http.StatusNotFound, "Task not found")
		return 0, false
	}
	return id, true
}
