package gorm

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	tv "github.com/taskvault/taskvault"
)

// Open connects to Postgres and runs the schema migrations.
func Open(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the tables for all taskvault models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&TaskModel{},
	)
}

// =============================================================================
// UserStore
// =============================================================================

// UserStore implements tv.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore on an open handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser inserts the user. The unique index on email turns a
// concurrent duplicate into tv.ErrDuplicateEmail instead of a race.
func (s *UserStore) CreateUser(user *tv.User) error {
	model := fromUser(user)
	if err := s.db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return tv.ErrDuplicateEmail
		}
		return err
	}
	user.Email = model.Email
	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *UserStore) GetUserByEmail(email string) (*tv.User, error) {
	var model UserModel
	err := s.db.First(&model, "email = ?", tv.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tv.ErrUserNotFound
		}
		return nil, err
	}
	return model.toUser(), nil
}

func (s *UserStore) GetUserByID(id string) (*tv.User, error) {
	var model UserModel
	err := s.db.First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tv.ErrUserNotFound
		}
		return nil, err
	}
	return model.toUser(), nil
}

// =============================================================================
// TaskStore
// =============================================================================

// TaskStore implements tv.TaskStore using GORM
type TaskStore struct {
	db *gorm.DB
}

// NewTaskStore creates a TaskStore on an open handle.
func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// ownedBy is the scope applied to every task query. It is the only
// place the ownership constraint is spelled, so an operation cannot
// forget it.
func ownedBy(ownerID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_by = ?", ownerID)
	}
}

func (s *TaskStore) CreateTask(task *tv.Task) error {
	model := fromTask(task)
	if err := s.db.Create(model).Error; err != nil {
		return err
	}
	task.CreatedAt = model.CreatedAt
	task.UpdatedAt = model.UpdatedAt
	return nil
}

func (s *TaskStore) GetTask(id, ownerID string) (*tv.Task, error) {
	var model TaskModel
	err := s.db.Scopes(ownedBy(ownerID)).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tv.ErrTaskNotFound
		}
		return nil, err
	}
	return model.toTask(), nil
}

func (s *TaskStore) UpdateTask(id, ownerID string, update tv.TaskUpdate) (*tv.Task, error) {
	// Column map rather than a struct update: zero values like
	// completed=false must still be written.
	values := map[string]any{}
	if update.Title != nil {
		values["title"] = *update.Title
	}
	if update.Description != nil {
		values["description"] = *update.Description
	}
	if update.Completed != nil {
		values["completed"] = *update.Completed
	}
	if update.Priority != nil {
		values["priority"] = *update.Priority
	}
	if update.DueDate != nil {
		values["due_date"] = *update.DueDate
	}

	if len(values) > 0 {
		res := s.db.Model(&TaskModel{}).
			Scopes(ownedBy(ownerID)).
			Where("id = ?", id).
			Updates(values)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, tv.ErrTaskNotFound
		}
	}
	return s.GetTask(id, ownerID)
}

func (s *TaskStore) DeleteTask(id, ownerID string) error {
	res := s.db.Scopes(ownedBy(ownerID)).Where("id = ?", id).Delete(&TaskModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return tv.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) ListTasks(filter tv.TaskFilter) ([]*tv.Task, int64, error) {
	q := s.db.Model(&TaskModel{}).Scopes(ownedBy(filter.OwnerID))
	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []TaskModel
	err := q.Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	tasks := make([]*tv.Task, 0, len(models))
	for i := range models {
		tasks = append(tasks, models[i].toTask())
	}
	return tasks, total, nil
}
