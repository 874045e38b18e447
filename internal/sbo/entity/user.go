package entity

import (
	"time"
)

// User is a directory entry. The workflow only ever references users through
// the lighter Person shape.
type User struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Email     string    `json:"email" gorm:"size:256;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Person converts the directory entry into a workflow person reference.
func (u *User) Person() Person {
	return Person{ID: u.ID, Display: u.Name, Email: u.Email}
}
