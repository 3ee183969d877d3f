package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/resume-hub/backend/internal/domain"
)

// UpdateResumeStatus 变更简历状态。状态更新和审计日志在同一个事务中落库，
// 任何一半失败都不会留下部分效果。
func (h *Handler) UpdateResumeStatus(w http.ResponseWriter, r *http.Request) {
	recruiter := r.Context().Value(UserCtxKey).(*domain.User)
	resume := r.Context().Value(ResumeCtxKey).(*domain.Resume)

	var req struct {
		Status string `json:"status" validate:"required,oneof=APPLY DROP PASS INTERVIEW1 INTERVIEW2 FINAL_PASS"`
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	previousStatus := resume.Status

	statusLog, err := h.resumes.UpdateResumeStatus(resume, recruiter.ID, domain.ResumeStatus(req.Status), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 版本号不匹配，说明有并发修改
			h.errorResponse(w, r, http.StatusBadRequest, "状态变更失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 通知求职者，事务已经提交，通知失败只记录日志
	h.notifyStatusChanged(r, resume, previousStatus, req.Reason)

	h.successResponse(w, r, http.StatusOK, "状态变更成功", statusLog)
}

func (h *Handler) notifyStatusChanged(r *http.Request, resume *domain.Resume, previousStatus domain.ResumeStatus, reason string) {
	owner, err := h.users.GetUserByID(resume.UserID)
	if err != nil {
		slog.Error("无法获取简历作者信息", "resumeId", resume.ID, "error", err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: "status_changed",
		To:   owner.Email,
		Data: domain.StatusChangedMailData{
			Name:           owner.Name,
			ResumeTitle:    resume.Title,
			PreviousStatus: string(previousStatus),
			NewStatus:      string(resume.Status),
			Reason:         reason,
		},
	}

	if err := h.mail.Publish(r.Context(), mailMessage); err != nil {
		slog.Error("无法发送状态变更通知邮件", "resumeId", resume.ID, "error", err)
	}
}

func (h *Handler) GetResumeStatusLogs(w http.ResponseWriter, r *http.Request) {
	resume := r.Context().Value(ResumeCtxKey).(*domain.Resume)

	logs, err := h.resumes.GetResumeStatusLogs(resume.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取状态日志成功", logs)
}
