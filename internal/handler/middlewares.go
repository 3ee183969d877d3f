package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/resume-hub/backend/internal/token"
)

var (
	errMissingCredentials = errors.New("认证信息不存在")
	errUnsupportedScheme  = errors.New("不支持的认证方式")
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bearerToken 从 Authorization 头中取出 Bearer 凭证
func bearerToken(r *http.Request) (string, error) {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return "", errMissingCredentials
	}

	scheme, credential, found := strings.Cut(authorization, " ")
	if !found || scheme != "Bearer" {
		return "", errUnsupportedScheme
	}

	return credential, nil
}

// auth 校验访问令牌，并把对应的用户附在请求上下文中。
// 任何失败都会要求客户端丢弃缓存的认证信息。
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := bearerToken(r)
		if err != nil {
			h.unauthorized(w, r, err.Error())
			return
		}

		userID, err := h.tokens.VerifyAccessToken(accessToken)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				h.unauthorized(w, r, "认证信息已过期")
			default:
				h.unauthorized(w, r, "令牌已被篡改")
			}
			return
		}

		// 令牌有效但用户可能已经注销
		user, err := h.users.GetUserByID(userID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.unauthorized(w, r, "没有与认证信息匹配的用户")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), UserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequiredRole 只放行角色在允许集合中的用户，必须在 auth 之后使用
func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(UserCtxKey).(*domain.User)
			if !ok || !slices.Contains(roles, user.Role) {
				h.forbidden(w, r, "没有访问权限")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) resumeInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resumeIDParam := chi.URLParam(r, "resumeID")
		resumeID, err := strconv.ParseInt(resumeIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "简历ID无效")
			return
		}

		resume, err := h.resumes.GetResumeByID(resumeID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "简历不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ResumeCtxKey, resume)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
