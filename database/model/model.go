// Package model defines the persisted records of the blog.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is created by registration and never modified afterwards.
type User struct {
	Id           string    `json:"id" gorm:"primaryKey;size:36"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Id == "" {
		u.Id = uuid.NewString()
	}
	return nil
}

// Post belongs to the user in UserId; ownership never changes.
type Post struct {
	Id        string    `json:"id" form:"id" gorm:"primaryKey;size:36"`
	Title     string    `json:"title" form:"title" gorm:"not null"`
	Body      string    `json:"body" form:"body" gorm:"type:text;not null"`
	UserId    string    `json:"userId" gorm:"index;not null;size:36"`
	User      *User     `json:"-" gorm:"foreignKey:UserId;references:Id;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.Id == "" {
		p.Id = uuid.NewString()
	}
	return nil
}
