package taskvault

import "time"

// User is a registered account. PasswordHash holds the bcrypt digest of
// the password, never the plaintext; RequireUser strips it before
// the user is attached to a request.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the projection of a User returned by the API.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the secret-free projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Task priority levels
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a single tracked item. CreatedBy identifies the owning user
// and is part of the filter on every store operation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskUpdate carries a partial update; nil fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	DueDate     *time.Time
}

// Apply copies the set fields onto the task.
func (u *TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.DueDate != nil {
		t.DueDate = u.DueDate
	}
}

// TaskFilter scopes a task listing. OwnerID is mandatory: stores must
// never return a task whose CreatedBy differs from it.
type TaskFilter struct {
	OwnerID   string
	Completed *bool
	Priority  string
	Page      int
	Limit     int
}

// Offset returns the number of records to skip for the filter's page.
func (f *TaskFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Matches reports whether the task satisfies the filter, including the
// ownership constraint.
func (f *TaskFilter) Matches(t *Task) bool {
	if t.CreatedBy != f.OwnerID {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// UserStore persists user accounts with hashed secrets.
type UserStore interface {
	// CreateUser persists a new user. Returns ErrDuplicateEmail when the
	// normalized email is already registered; implementations enforce the
	// uniqueness atomically, not via check-then-insert.
	CreateUser(user *User) error

	// GetUserByEmail looks up a user by email (normalized before the
	// lookup). Returns ErrUserNotFound when no such user exists.
	GetUserByEmail(email string) (*User, error)

	// GetUserByID looks up a user by id. Returns ErrUserNotFound when no
	// such user exists.
	GetUserByID(id string) (*User, error)
}

// TaskStore persists tasks. Every single-task method takes the caller's
// owner id and treats a task owned by someone else exactly like a
// missing one, returning ErrTaskNotFound.
type TaskStore interface {
	CreateTask(task *Task) error
	GetTask(id, ownerID string) (*Task, error)
	UpdateTask(id, ownerID string, update TaskUpdate) (*Task, error)
	DeleteTask(id, ownerID string) error

	// ListTasks returns the filter's page of tasks, newest first, plus
	// the total number of matches.
	ListTasks(filter TaskFilter) ([]*Task, int64, error)
}
