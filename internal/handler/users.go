package handler

import (
	"net/http"

	"github.com/resume-hub/backend/internal/domain"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserCtxKey).(*domain.User)
	h.successResponse(w, r, http.StatusOK, "获取个人信息成功", user)
}
