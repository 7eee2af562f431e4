package gorm

import (
	"time"

	tv "github.com/taskvault/taskvault"
)

// UserModel is the GORM model for user accounts
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Name         string    `gorm:"size:100;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:100;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) toUser() *tv.User {
	return &tv.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromUser(u *tv.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        tv.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
	}
}

// TaskModel is the GORM model for tasks
type TaskModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:100;not null"`
	Description string
	Completed   bool       `gorm:"default:false"`
	Priority    string     `gorm:"size:10;index;default:medium"`
	DueDate     *time.Time `gorm:"index"`
	CreatedBy   string     `gorm:"size:36;index;not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (TaskModel) TableName() string {
	return "tasks"
}

func (m *TaskModel) toTask() *tv.Task {
	return &tv.Task{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Completed:   m.Completed,
		Priority:    m.Priority,
		DueDate:     m.DueDate,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromTask(t *tv.Task) *TaskModel {
	return &TaskModel{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedBy:   t.CreatedBy,
	}
}
