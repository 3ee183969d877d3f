package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/resume-hub/backend/internal/mailer"
	"github.com/resume-hub/backend/internal/session"
)

type UsersStore interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	CreateUser(user *domain.User) error
}

type ResumesStore interface {
	CreateResume(resume *domain.Resume) error
	GetResumes(ownerID *int64, status domain.ResumeStatus, sortAsc bool) ([]*domain.Resume, error)
	GetResumeByID(id int64) (*domain.Resume, error)
	UpdateResume(resume *domain.Resume) error
	DeleteResume(id int64) error
	UpdateResumeStatus(resume *domain.Resume, recruiterID int64, newStatus domain.ResumeStatus, reason string) (*domain.ResumeStatusLog, error)
	GetResumeStatusLogs(resumeID int64) ([]*domain.ResumeStatusLog, error)
}

type Sessions interface {
	Start(ctx context.Context, userID int64) (*session.TokenPair, error)
	Validate(ctx context.Context, refreshToken string) (*domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.User, *session.TokenPair, error)
	End(ctx context.Context, userID int64) error
}

type Tokens interface {
	VerifyAccessToken(tokenString string) (int64, error)
}

type Handler struct {
	validate   *validator.Validate
	translator ut.Translator
	users      UsersStore
	resumes    ResumesStore
	sessions   Sessions
	tokens     Tokens
	mail       mailer.Publisher

	Mux *chi.Mux
}

func NewHandler(users UsersStore, resumes ResumesStore, sessions Sessions, tokens Tokens, mail mailer.Publisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		translator: trans,
		users:      users,
		resumes:    resumes,
		sessions:   sessions,
		tokens:     tokens,
		mail:       mail,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/sign-up", h.SignUp)
		r.Post("/sign-in", h.SignIn)
		r.Post("/tokens", h.RefreshTokens)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/users/me", h.GetMyInfo)

		r.Route("/resumes", func(r chi.Router) {
			r.Post("/", h.CreateResume)
			r.Get("/", h.GetResumes)

			// 状态流转只对招聘负责人开放
			r.Route("/status/{resumeID}", func(r chi.Router) {
				r.Use(h.RequiredRole([]domain.Role{domain.RoleRecruiter}))
				r.Use(h.resumeInfo)
				r.Patch("/", h.UpdateResumeStatus)
				r.Get("/", h.GetResumeStatusLogs)
			})

			r.Route("/{resumeID}", func(r chi.Router) {
				r.Use(h.resumeInfo)
				r.Get("/", h.GetResume)
				r.Patch("/", h.UpdateResume)
				r.Delete("/", h.DeleteResume)
			})
		})
	})
}
