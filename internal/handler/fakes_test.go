package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/resume-hub/backend/internal/config"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/resume-hub/backend/internal/session"
	"github.com/resume-hub/backend/internal/token"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	byID      map[int64]*domain.User
	nextID    int64
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]*domain.User)}
}

func (f *fakeUsers) GetUserByID(id int64) (*domain.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeUsers) GetUserByEmail(email string) (*domain.User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) CreateUser(user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}

	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.Version = 1
	f.byID[user.ID] = user
	return nil
}

type fakeResumes struct {
	byID            map[int64]*domain.Resume
	logs            map[int64][]*domain.ResumeStatusLog
	nextID          int64
	nextLogID       int64
	statusCalls     int
	updateStatusErr error
}

func newFakeResumes() *fakeResumes {
	return &fakeResumes{
		byID: make(map[int64]*domain.Resume),
		logs: make(map[int64][]*domain.ResumeStatusLog),
	}
}

func (f *fakeResumes) CreateResume(resume *domain.Resume) error {
	f.nextID++
	resume.ID = f.nextID
	resume.Status = domain.StatusApply
	resume.CreatedAt = time.Now()
	resume.UpdatedAt = resume.CreatedAt
	resume.Version = 1
	f.byID[resume.ID] = resume
	return nil
}

func (f *fakeResumes) GetResumes(ownerID *int64, status domain.ResumeStatus, sortAsc bool) ([]*domain.Resume, error) {
	resumes := make([]*domain.Resume, 0)
	for _, resume := range f.byID {
		if ownerID != nil && resume.UserID != *ownerID {
			continue
		}
		if status != "" && resume.Status != status {
			continue
		}
		resumes = append(resumes, resume)
	}

	slices.SortFunc(resumes, func(a, b *domain.Resume) int {
		if sortAsc {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return resumes, nil
}

func (f *fakeResumes) GetResumeByID(id int64) (*domain.Resume, error) {
	resume, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return resume, nil
}

func (f *fakeResumes) UpdateResume(resume *domain.Resume) error {
	if _, ok := f.byID[resume.ID]; !ok {
		return sql.ErrNoRows
	}
	resume.UpdatedAt = time.Now()
	resume.Version++
	f.byID[resume.ID] = resume
	return nil
}

func (f *fakeResumes) DeleteResume(id int64) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeResumes) UpdateResumeStatus(resume *domain.Resume, recruiterID int64, newStatus domain.ResumeStatus, reason string) (*domain.ResumeStatusLog, error) {
	f.statusCalls++
	if f.updateStatusErr != nil {
		return nil, f.updateStatusErr
	}

	f.nextLogID++
	statusLog := &domain.ResumeStatusLog{
		ID:             f.nextLogID,
		ResumeID:       resume.ID,
		RecruiterID:    recruiterID,
		PreviousStatus: resume.Status,
		NewStatus:      newStatus,
		Reason:         reason,
		UpdatedAt:      time.Now(),
	}

	// 最新的日志在前
	f.logs[resume.ID] = append([]*domain.ResumeStatusLog{statusLog}, f.logs[resume.ID]...)
	resume.Status = newStatus
	resume.Version++

	return statusLog, nil
}

func (f *fakeResumes) GetResumeStatusLogs(resumeID int64) ([]*domain.ResumeStatusLog, error) {
	return append([]*domain.ResumeStatusLog{}, f.logs[resumeID]...), nil
}

type memorySessionStore struct {
	sessions map[int64]string
}

func (s *memorySessionStore) Save(_ context.Context, userID int64, refreshToken string) error {
	s.sessions[userID] = refreshToken
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, userID int64) (string, error) {
	refreshToken, ok := s.sessions[userID]
	if !ok {
		return "", session.ErrNoSession
	}
	return refreshToken, nil
}

func (s *memorySessionStore) Delete(_ context.Context, userID int64) error {
	delete(s.sessions, userID)
	return nil
}

type fakePublisher struct {
	messages   []domain.MailMessage
	publishErr error
}

func (p *fakePublisher) Publish(_ context.Context, msg domain.MailMessage) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.messages = append(p.messages, msg)
	return nil
}

type testEnv struct {
	handler  *Handler
	users    *fakeUsers
	resumes  *fakeResumes
	tokens   *token.Manager
	sessions *session.Manager
	store    *memorySessionStore
	mail     *fakePublisher
}

func newTestEnv(t *testing.T, accessExpiration int) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.AccessToken.Secret = "access-test-secret"
	cfg.AccessToken.Expiration = accessExpiration
	cfg.RefreshToken.Secret = "refresh-test-secret"
	cfg.RefreshToken.Expiration = 604800

	users := newFakeUsers()
	resumes := newFakeResumes()
	tokens := token.NewManager(cfg)
	store := &memorySessionStore{sessions: make(map[int64]string)}
	sessions := session.NewManager(tokens, store, users)
	mail := &fakePublisher{}

	h, err := NewHandler(users, resumes, sessions, tokens, mail)
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testEnv{
		handler:  h,
		users:    users,
		resumes:  resumes,
		tokens:   tokens,
		sessions: sessions,
		store:    store,
		mail:     mail,
	}
}

func (e *testEnv) createUser(t *testing.T, email string, password string, role domain.Role) *domain.User {
	t.Helper()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Name:         "测试用户",
		Role:         role,
	}
	require.NoError(t, e.users.CreateUser(user))

	return user
}

func createTestResume(t *testing.T, env *testEnv, ownerID int64) *domain.Resume {
	t.Helper()

	resume := &domain.Resume{
		UserID:    ownerID,
		Title:     "后端工程师申请",
		Introduce: strings.Repeat("自我介绍", 50),
	}
	require.NoError(t, env.resumes.CreateResume(resume))

	return resume
}

func (e *testEnv) accessToken(t *testing.T, userID int64) string {
	t.Helper()

	accessToken, err := e.tokens.IssueAccessToken(userID)
	require.NoError(t, err)
	return accessToken
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, bearer string) (*httptest.ResponseRecorder, *Response) {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.handler.Mux.ServeHTTP(rec, req)

	resp := &Response{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(resp))

	return rec, resp
}
