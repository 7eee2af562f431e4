package taskvault

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskService guards all task access behind the caller's identity.
// Every store call carries the owner id, so a task owned by another
// user is indistinguishable from one that does not exist.
type TaskService struct {
	Store TaskStore
}

// NewTaskService creates a TaskService.
func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{Store: store}
}

// CreateTask persists a new task bound to ownerID, regardless of any
// owner value the caller may have set on the task.
func (s *TaskService) CreateTask(ownerID string, task *Task) error {
	if ownerID == "" {
		return fmt.Errorf("owner id required")
	}
	task.ID = uuid.NewString()
	task.CreatedBy = ownerID
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	return s.Store.CreateTask(task)
}

// GetTask returns the task only when ownerID owns it.
func (s *TaskService) GetTask(ownerID, id string) (*Task, error) {
	return s.Store.GetTask(id, ownerID)
}

// UpdateTask applies a partial update to a task owned by ownerID.
func (s *TaskService) UpdateTask(ownerID, id string, update TaskUpdate) (*Task, error) {
	return s.Store.UpdateTask(id, ownerID, update)
}

// DeleteTask removes a task owned by ownerID.
func (s *TaskService) DeleteTask(ownerID, id string) error {
	return s.Store.DeleteTask(id, ownerID)
}

// ListTasks returns one page of the owner's tasks plus the total match
// count. The filter must name an owner.
func (s *TaskService) ListTasks(filter TaskFilter) ([]*Task, int64, error) {
	if filter.OwnerID == "" {
		return nil, 0, fmt.Errorf("owner id required")
	}
	return s.Store.ListTasks(filter)
}
