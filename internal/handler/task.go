package handler

import (
	"net/http"
	"time"

	"github.com/kjelstad/chorebank/internal/engine"
	"github.com/kjelstad/chorebank/internal/model"
)

// TaskHandler serves the task lifecycle.
type TaskHandler struct {
	store *engine.Store
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(store *engine.Store) *TaskHandler {
	return &TaskHandler{store: store}
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Points      int        `json:"points"`
	Due         *time.Time `json:"due"`
	AssignedTo  string     `json:"assigned_to"`
	Icon        string     `json:"icon"`
	Categories  []string   `json:"categories"`

	SkipApproval          bool `json:"skip_approval"`
	PersistUntilCompleted bool `json:"persist_until_completed"`
	QuickComplete         bool `json:"quick_complete"`
	FastestWins           bool `json:"fastest_wins"`
	MarkOverdue           bool `json:"mark_overdue"`

	ScheduleMode   string   `json:"schedule_mode"`
	RepeatDays     []string `json:"repeat_days"`
	RepeatChildID  string   `json:"repeat_child_id"`
	RepeatChildIDs []string `json:"repeat_child_ids"`

	BonusEnabled bool   `json:"bonus_enabled"`
	BonusTitle   string `json:"bonus_title"`
	BonusPoints  int    `json:"bonus_points"`

	EarlyBonusEnabled bool `json:"early_bonus_enabled"`
	EarlyBonusDays    int  `json:"early_bonus_days"`
	EarlyBonusPoints  int  `json:"early_bonus_points"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.store.AddTask(engine.TaskDraft{
		Title:                 req.Title,
		Description:           req.Description,
		Points:                req.Points,
		Due:                   req.Due,
		AssignedTo:            req.AssignedTo,
		Icon:                  req.Icon,
		Categories:            req.Categories,
		SkipApproval:          req.SkipApproval,
		PersistUntilCompleted: req.PersistUntilCompleted,
		QuickComplete:         req.QuickComplete,
		FastestWins:           req.FastestWins,
		MarkOverdue:           req.MarkOverdue,
		ScheduleMode:          model.ScheduleMode(req.ScheduleMode),
		RepeatDays:            req.RepeatDays,
		RepeatChildID:         req.RepeatChildID,
		RepeatChildIDs:        req.RepeatChildIDs,
		BonusEnabled:          req.BonusEnabled,
		BonusTitle:            req.BonusTitle,
		BonusPoints:           req.BonusPoints,
		EarlyBonusEnabled:     req.EarlyBonusEnabled,
		EarlyBonusDays:        req.EarlyBonusDays,
		EarlyBonusPoints:      req.EarlyBonusPoints,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks := h.store.Tasks()
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.Task(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type taskPatch struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Points      *int       `json:"points"`
	Due         *time.Time `json:"due"`
	Icon        *string    `json:"icon"`
	Categories  []string   `json:"categories"`

	SkipApproval          *bool `json:"skip_approval"`
	PersistUntilCompleted *bool `json:"persist_until_completed"`
	QuickComplete         *bool `json:"quick_complete"`
	FastestWins           *bool `json:"fastest_wins"`
	MarkOverdue           *bool `json:"mark_overdue"`

	BonusEnabled *bool   `json:"bonus_enabled"`
	BonusTitle   *string `json:"bonus_title"`
	BonusPoints  *int    `json:"bonus_points"`

	EarlyBonusEnabled *bool `json:"early_bonus_enabled"`
	EarlyBonusDays    *int  `json:"early_bonus_days"`
	EarlyBonusPoints  *int  `json:"early_bonus_points"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskPatch
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.store.UpdateTask(r.PathValue("id"), engine.TaskUpdate{
		Title:                 req.Title,
		Description:           req.Description,
		Points:                req.Points,
		Due:                   req.Due,
		Icon:                  req.Icon,
		Categories:            req.Categories,
		SkipApproval:          req.SkipApproval,
		PersistUntilCompleted: req.PersistUntilCompleted,
		QuickComplete:         req.QuickComplete,
		FastestWins:           req.FastestWins,
		MarkOverdue:           req.MarkOverdue,
		BonusEnabled:          req.BonusEnabled,
		BonusTitle:            req.BonusTitle,
		BonusPoints:           req.BonusPoints,
		EarlyBonusEnabled:     req.EarlyBonusEnabled,
		EarlyBonusDays:        req.EarlyBonusDays,
		EarlyBonusPoints:      req.EarlyBonusPoints,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTask(r.PathValue("id")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChildID string `json:"child_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.store.AssignTask(r.PathValue("id"), req.ChildID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus drives the lifecycle. child_id identifies the acting child and
// is required for fastest-wins races to be decided correctly.
func (h *TaskHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status      string     `json:"status"`
		ChildID     string     `json:"child_id"`
		CompletedTS *time.Time `json:"completed_ts"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.SetTaskStatus(id, model.Status(req.Status), req.CompletedTS, req.ChildID); err != nil {
		writeEngineError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.ApproveTask(id); err != nil {
		writeEngineError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ApproveAll approves the task and its bonus in one shot.
func (h *TaskHandler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.ApproveAll(id); err != nil {
		writeEngineError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CompleteBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompletedTS *time.Time `json:"completed_ts"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	if err := h.store.CompleteBonus(id, req.CompletedTS); err != nil {
		writeEngineError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) ApproveBonus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.ApproveBonus(id); err != nil {
		writeEngineError(w, err)
		return
	}
	task, err := h.store.Task(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) SetRepeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RepeatDays     []string `json:"repeat_days"`
		RepeatChildID  string   `json:"repeat_child_id"`
		RepeatChildIDs []string `json:"repeat_child_ids"`
		ScheduleMode   string   `json:"schedule_mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	err := h.store.SetTaskRepeat(id, req.RepeatDays, req.RepeatChildID, req.RepeatChildIDs, model.ScheduleMode(req.ScheduleMode))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) SetIcon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Icon string `json:"icon"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.store.SetTaskIcon(r.PathValue("id"), req.Icon); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
