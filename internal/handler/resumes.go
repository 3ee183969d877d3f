package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/resume-hub/backend/internal/domain"
)

func (h *Handler) CreateResume(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)

	var req struct {
		Title     string `json:"title" validate:"required"`
		Introduce string `json:"introduce" validate:"required,min=150"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resume := &domain.Resume{
		UserID:    user.ID,
		Title:     req.Title,
		Introduce: req.Introduce,
	}

	if err := h.resumes.CreateResume(resume); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusCreated, "简历创建成功", resume)
}

func (h *Handler) GetResumes(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)

	status := domain.ResumeStatus(strings.ToUpper(r.URL.Query().Get("status")))
	sortAsc := strings.EqualFold(r.URL.Query().Get("sort"), "asc")

	// 求职者只能看到自己的简历，招聘负责人可以看到全部
	var ownerID *int64
	if user.Role != domain.RoleRecruiter {
		ownerID = &user.ID
	}

	resumes, err := h.resumes.GetResumes(ownerID, status, sortAsc)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取简历列表成功", resumes)
}

func (h *Handler) GetResume(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)
	resume := r.Context().Value(ResumeCtxKey).(*domain.Resume)

	// 对非本人的求职者隐藏别人的简历
	if resume.UserID != user.ID && user.Role != domain.RoleRecruiter {
		h.notFound(w, r, "简历不存在")
		return
	}

	h.successResponse(w, r, http.StatusOK, "获取简历成功", resume)
}

func (h *Handler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)
	resume := r.Context().Value(ResumeCtxKey).(*domain.Resume)

	if resume.UserID != user.ID {
		if user.Role == domain.RoleRecruiter {
			h.forbidden(w, r, "只有简历作者才能修改简历内容")
		} else {
			h.notFound(w, r, "简历不存在")
		}
		return
	}

	var req struct {
		Title     *string `json:"title"`
		Introduce *string `json:"introduce" validate:"omitempty,min=150"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Title == nil && req.Introduce == nil {
		h.badRequest(w, r, errors.New("请输入要修改的内容"))
		return
	}

	if req.Title != nil {
		resume.Title = *req.Title
	}
	if req.Introduce != nil {
		resume.Introduce = *req.Introduce
	}

	if err := h.resumes.UpdateResume(resume); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusBadRequest, "修改简历失败，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, http.StatusOK, "修改简历成功", resume)
}

func (h *Handler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)
	resume := r.Context().Value(ResumeCtxKey).(*domain.Resume)

	// 本人或招聘负责人可以删除
	if resume.UserID != user.ID && user.Role != domain.RoleRecruiter {
		h.notFound(w, r, "简历不存在")
		return
	}

	if err := h.resumes.DeleteResume(resume.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "删除简历成功", struct {
		ResumeID int64 `json:"resumeId"`
	}{ResumeID: resume.ID})
}
