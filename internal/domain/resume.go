package domain

import (
	"time"
)

type ResumeStatus string

const (
	StatusApply      ResumeStatus = "APPLY"
	StatusDrop       ResumeStatus = "DROP"
	StatusPass       ResumeStatus = "PASS"
	StatusInterview1 ResumeStatus = "INTERVIEW1"
	StatusInterview2 ResumeStatus = "INTERVIEW2"
	StatusFinalPass  ResumeStatus = "FINAL_PASS"
)

var ResumeStatuses = []ResumeStatus{
	StatusApply,
	StatusDrop,
	StatusPass,
	StatusInterview1,
	StatusInterview2,
	StatusFinalPass,
}

type Resume struct {
	ID         int64        `json:"resumeId"`
	UserID     int64        `json:"userId"`
	AuthorName string       `json:"name,omitempty"`
	Title      string       `json:"title"`
	Introduce  string       `json:"introduce"`
	Status     ResumeStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	Version    int32        `json:"-"`
}

// 每一次被接受的状态变更都会追加一条日志，状态字段和日志永远不允许分叉
type ResumeStatusLog struct {
	ID             int64        `json:"logId"`
	ResumeID       int64        `json:"resumeId"`
	RecruiterID    int64        `json:"recruiterId"`
	PreviousStatus ResumeStatus `json:"previousStatus"`
	NewStatus      ResumeStatus `json:"newStatus"`
	Reason         string       `json:"reason"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
