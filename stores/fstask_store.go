package stores

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	tv "github.com/taskvault/taskvault"
)

// FSTaskStore stores tasks as JSON files. Every read and mutation is
// filtered by the owner id, so a task owned by another user behaves
// exactly like a missing one.
type FSTaskStore struct {
	StoragePath string

	mu sync.Mutex
}

// NewFSTaskStore creates a file-backed task store rooted at storagePath.
func NewFSTaskStore(storagePath string) *FSTaskStore {
	return &FSTaskStore{StoragePath: storagePath}
}

func (s *FSTaskStore) taskPath(id string) string {
	return filepath.Join(s.StoragePath, "tasks", id+".json")
}

// CreateTask persists a new task.
func (s *FSTaskStore) CreateTask(task *tv.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	return s.writeTask(task)
}

// GetTask loads a task only when ownerID owns it.
func (s *FSTaskStore) GetTask(id, ownerID string) (*tv.Task, error) {
	task, err := s.readTask(id)
	if err != nil {
		return nil, err
	}
	if task.CreatedBy != ownerID {
		return nil, tv.ErrTaskNotFound
	}
	return task, nil
}

// UpdateTask applies a partial update to a task owned by ownerID.
func (s *FSTaskStore) UpdateTask(id, ownerID string, update tv.TaskUpdate) (*tv.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.GetTask(id, ownerID)
	if err != nil {
		return nil, err
	}

	update.Apply(task)
	task.UpdatedAt = time.Now().UTC()
	if err := s.writeTask(task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task owned by ownerID.
func (s *FSTaskStore) DeleteTask(id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.GetTask(id, ownerID); err != nil {
		return err
	}
	return os.Remove(s.taskPath(id))
}

// ListTasks scans the task directory, keeps the filter's matches and
// returns the requested page, newest first, plus the total match count.
func (s *FSTaskStore) ListTasks(filter tv.TaskFilter) ([]*tv.Task, int64, error) {
	dir := filepath.Join(s.StoragePath, "tasks")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*tv.Task{}, 0, nil
		}
		return nil, 0, err
	}

	var matches []*tv.Task
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		task, err := s.readTask(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if filter.Matches(task) {
			matches = append(matches, task)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := int64(len(matches))
	start := filter.Offset()
	if start >= len(matches) {
		return []*tv.Task{}, total, nil
	}
	end := len(matches)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	return matches[start:end], total, nil
}

func (s *FSTaskStore) readTask(id string) (*tv.Task, error) {
	data, err := os.ReadFile(s.taskPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tv.ErrTaskNotFound
		}
		return nil, err
	}

	var task tv.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *FSTaskStore) writeTask(task *tv.Task) error {
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.taskPath(task.ID), data)
}
