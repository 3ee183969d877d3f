package domain

import (
	"time"
)

type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleRecruiter Role = "RECRUITER"
)

type User struct {
	ID           int64     `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Version      int32     `json:"-"`
}
