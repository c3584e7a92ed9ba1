package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID         uuid.UUID `json:"uid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	PassHash   []byte    `json:"-"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserProfile is the public view of a user together with their submissions.
type UserProfile struct {
	User
	Books   []Book   `json:"books"`
	Reviews []Review `json:"reviews"`
}

type UserUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

type Book struct {
	ID            uuid.UUID  `json:"uid"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	Publisher     string     `json:"publisher"`
	PageCount     int        `json:"page_count"`
	Language      string     `json:"language"`
	PublishedDate time.Time  `json:"published_date"`
	UserID        *uuid.UUID `json:"user_uid"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type BookDetail struct {
	Book
	Reviews []Review `json:"reviews"`
	Tags    []Tag    `json:"tags"`
}

type BookUpdate struct {
	Title     *string
	Author    *string
	Publisher *string
	PageCount *int
	Language  *string
}

type Review struct {
	ID        uuid.UUID  `json:"uid"`
	Rating    int        `json:"rating"`
	Text      string     `json:"review_text"`
	UserID    *uuid.UUID `json:"user_uid"`
	BookID    *uuid.UUID `json:"book_uid"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type ReviewUpdate struct {
	Rating *int
	Text   *string
}

type Tag struct {
	ID        uuid.UUID `json:"uid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a rendered email handed to the delivery queue.
type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
