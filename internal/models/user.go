package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User mirrors the directory service's account record. The assessment service
// is not the owner of user data; it reads identity, role and roster
// membership only.
type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	FullName  string   `json:"full_name" gorm:"not null;size:100"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role      UserRole `json:"role" gorm:"not null;index"`
	StudentNo *string  `json:"student_no" gorm:"size:50"`
	IsActive  bool     `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

type Class struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"not null;size:100"`
	Subject   string `json:"subject" gorm:"size:100"`
	TeacherID string `json:"teacher_id" gorm:"not null;size:255;index"`

	Students []ClassStudent `json:"students" gorm:"foreignKey:ClassID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Class) TableName() string {
	return "classes"
}

// ClassStudent is a roster entry. AuthID is nil until the directory service
// links the roster row to a real account; the distributor skips unlinked
// entries instead of failing the batch.
type ClassStudent struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	ClassID   uint    `json:"class_id" gorm:"not null;index"`
	Name      string  `json:"name" gorm:"not null;size:100"`
	StudentNo string  `json:"student_no" gorm:"size:50"`
	AuthID    *string `json:"auth_id" gorm:"size:255;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ClassStudent) TableName() string {
	return "class_students"
}

// Linked reports whether the roster entry has a resolvable identity.
func (s ClassStudent) Linked() bool {
	return s.AuthID != nil && *s.AuthID != ""
}
