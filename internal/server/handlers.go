package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsboard/opsboard/internal/model"
	"github.com/opsboard/opsboard/internal/schedule"
	"github.com/opsboard/opsboard/internal/store"
	"github.com/opsboard/opsboard/internal/taskview"
)

// shiftDate moves a YYYY-MM-DD date by the given number of days.
func shiftDate(date string, days int) (string, error) {
	t, err := time.Parse(model.DateFormat, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return t.AddDate(0, 0, days).Format(model.DateFormat), nil
}

// parseEditedField maps the "edited" request value onto a derivation
// field tag.
func parseEditedField(s string) schedule.Field {
	switch s {
	case "start_time":
		return schedule.FieldStartTime
	case "due_time":
		return schedule.FieldDueTime
	case "duration":
		return schedule.FieldDuration
	default:
		return schedule.FieldNone
	}
}

// handleListTasks returns the filtered, enriched task view. Store-level
// scoping comes from query params; the in-memory view state mirrors the
// list screen's filter bar.
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.TaskFilter{SortBy: q.Get("sort_by"), SortDesc: q.Get("order") == "desc"}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if v := q.Get("entity_type"); v != "" {
		filter.EntityType = &v
	}
	if v := q.Get("entity_id"); v != "" {
		filter.EntityID = &v
	}
	if q.Get("include_subtasks") != "true" {
		root := ""
		filter.ParentID = &root
	}
	// Entity-scoped views ignore the search box, so the SQL prefilter
	// only engages for unscoped lists.
	if v := q.Get("search"); v != "" && q.Get("entity_type") == "" {
		filter.Query = &v
	}

	view := taskview.State{
		ShowCompleted: q.Get("show_completed") == "true",
		Perspective:   q.Get("perspective"),
		Timeframe:     q.Get("timeframe"),
		Search:        q.Get("search"),
		AssignedTo:    q.Get("assigned_to"),
		EntityType:    q.Get("entity_type"),
		EntityID:      q.Get("entity_id"),
		SortBy:        q.Get("sort_by"),
		SortDesc:      q.Get("order") == "desc",
	}

	tasks, err := s.svc.ListView(r.Context(), requestScope(r), filter, view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var task model.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.svc.Create(r.Context(), requestScope(r), task)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.Get(r.Context(), requestScope(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var task model.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task.ID = chi.URLParam(r, "taskID")

	edited := parseEditedField(r.URL.Query().Get("edited"))
	updated, err := s.svc.Update(r.Context(), requestScope(r), task, edited)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SoftDelete(r.Context(), requestScope(r), chi.URLParam(r, "taskID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Complete(r.Context(), requestScope(r), chi.URLParam(r, "taskID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReopenTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Reopen(r.Context(), requestScope(r), chi.URLParam(r, "taskID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePostponeTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.svc.Postpone(r.Context(), requestScope(r), chi.URLParam(r, "taskID"), req.Days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleEditTiming accepts one timing-field keystroke. Edits are
// debounced service-side; the response acknowledges receipt, it does
// not wait for the derived save.
func (s *Server) handleEditTiming(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DueDate     string `json:"due_date"`
		StartTime   string `json:"start_time"`
		DueTime     string `json:"due_time"`
		Duration    int    `json:"duration"`
		DurationSet bool   `json:"duration_set"`
		Edited      string `json:"edited"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edited := parseEditedField(req.Edited)
	if edited == schedule.FieldNone {
		writeJSONError(w, http.StatusBadRequest, "edited must be start_time, due_time, or duration")
		return
	}

	s.svc.EditTiming(requestScope(r), chi.URLParam(r, "taskID"), schedule.TimeFields{
		DueDate:     req.DueDate,
		StartTime:   req.StartTime,
		DueTime:     req.DueTime,
		Duration:    req.Duration,
		DurationSet: req.DurationSet,
	}, edited)

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleListSubtasks(w http.ResponseWriter, r *http.Request) {
	subs, err := s.svc.Subtasks(r.Context(), requestScope(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if subs == nil {
		subs = []model.Task{}
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleCreateSubtask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st, err := s.svc.CreateSubtask(r.Context(), requestScope(r), chi.URLParam(r, "taskID"), req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleListAssignees(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.Get(r.Context(), requestScope(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	assignees := task.Assignees
	if assignees == nil {
		assignees = []model.Assignee{}
	}
	writeJSON(w, http.StatusOK, assignees)
}

func (s *Server) handleAddAssignee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignees, err := s.svc.AddAssignee(r.Context(), requestScope(r), chi.URLParam(r, "taskID"), req.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignees)
}

// handleAssigneeCandidates returns the roster members still assignable
// to the task, for the assignee picker.
func (s *Server) handleAssigneeCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.svc.AssigneeCandidates(r.Context(), requestScope(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if candidates == nil {
		candidates = []model.Member{}
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleRemoveAssignee(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RemoveAssignee(r.Context(), requestScope(r),
		chi.URLParam(r, "taskID"), chi.URLParam(r, "assigneeID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Activity(r.Context(), requestScope(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDaySchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := requestScope(r)

	userID := q.Get("user_id")
	if userID == "" {
		userID = scope.UserID
	}
	date := q.Get("date")
	if date == "" {
		writeJSONError(w, http.StatusBadRequest, "missing date query parameter")
		return
	}
	if offset := q.Get("offset"); offset != "" {
		// Day-step navigation: ±N days relative to the given date.
		days, err := strconv.Atoi(offset)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		shifted, err := shiftDate(date, days)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = shifted
	}

	day, err := s.svc.DaySchedule(r.Context(), scope, userID, date, q.Get("exclude"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.svc.Members(r.Context(), requestScope(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// handleUpsertMember syncs one roster entry from the upstream user
// directory.
func (s *Server) handleUpsertMember(w http.ResponseWriter, r *http.Request) {
	var m model.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.UpsertMember(r.Context(), requestScope(r), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpsertEntityRef syncs the display name of one business object.
func (s *Server) handleUpsertEntityRef(w http.ResponseWriter, r *http.Request) {
	var ref model.EntityRef
	if err := json.NewDecoder(r.Body).Decode(&ref); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.svc.UpsertEntityRef(r.Context(), requestScope(r), ref); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTaskTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.svc.TaskTypes(r.Context(), requestScope(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if types == nil {
		types = []model.TaskType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleCreateTaskType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tt, err := s.svc.CreateTaskType(r.Context(), requestScope(r), req.Label, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tt)
}

func (s *Server) handleDeleteTaskType(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTaskType(r.Context(), requestScope(r), chi.URLParam(r, "typeID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
