package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/resume-hub/backend/internal/session"
	"github.com/resume-hub/backend/internal/token"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email" validate:"required,email"`
		Password        string `json:"password" validate:"required,min=6"`
		PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
		Name            string `json:"name" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 对密码进行哈希
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Name:         req.Name,
		Role:         domain.RoleApplicant,
	}

	if err := h.users.CreateUser(user); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "users_email_key":
				h.badRequest(w, r, errors.New("该邮箱已被注册"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 准备欢迎邮件
	mailMessage := domain.MailMessage{
		Type: "welcome",
		To:   user.Email,
		Data: domain.WelcomeMailData{
			Name:  user.Name,
			Email: user.Email,
		},
	}

	if err := h.mail.Publish(r.Context(), mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusCreated, "注册成功", user)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证邮箱和密码
	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.unauthorized(w, r, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 开启会话会覆盖该用户之前的会话
	pair, err := h.sessions.Start(r.Context(), user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "登录成功", pair)
}

// RefreshTokens 用出示的刷新令牌换取一对新令牌（轮换），旧令牌随即失效
func (h *Handler) RefreshTokens(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := bearerToken(r)
	if err != nil {
		h.unauthorized(w, r, err.Error())
		return
	}

	_, pair, err := h.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			h.unauthorized(w, r, "认证信息已过期")
		case errors.Is(err, token.ErrTokenInvalid):
			h.unauthorized(w, r, "认证信息无效")
		case errors.Is(err, session.ErrUserNotFound):
			h.unauthorized(w, r, "没有与认证信息匹配的用户")
		case errors.Is(err, session.ErrSessionRevoked):
			h.unauthorized(w, r, "认证信息已被废弃")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	w.Header().Set("Access-Token", pair.AccessToken)
	w.Header().Set("Refresh-Token", pair.RefreshToken)

	h.successResponse(w, r, http.StatusOK, "令牌刷新成功", pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := bearerToken(r)
	if err != nil {
		h.unauthorized(w, r, err.Error())
		return
	}

	user, err := h.sessions.Validate(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired), errors.Is(err, token.ErrTokenInvalid),
			errors.Is(err, session.ErrUserNotFound), errors.Is(err, session.ErrSessionRevoked):
			h.unauthorized(w, r, "无效的会话")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.sessions.End(r.Context(), user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, http.StatusOK, "登出成功", struct {
		UserID int64 `json:"userId"`
	}{UserID: user.ID})
}
