package repository

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/resume-hub/backend/internal/config"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// newTestRepository 连接 TEST_DATABASE_DSN 指向的数据库，执行迁移并清空数据。
// 未设置该环境变量时跳过测试。
func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("未设置 TEST_DATABASE_DSN，跳过数据库测试")
	}

	dbpool, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = dbpool.Close()
	})

	files, err := filepath.Glob("../../migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		require.NoError(t, err)
		_, err = dbpool.Exec(string(content))
		require.NoError(t, err)
	}

	_, err = dbpool.Exec("TRUNCATE users, resumes, resume_status_logs RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	return NewRepository(cfg, dbpool)
}

func createTestUser(t *testing.T, repo *Repository, email string, role domain.Role) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         "测试用户",
		Role:         role,
	}
	require.NoError(t, repo.CreateUser(user))

	return user
}

func createTestResume(t *testing.T, repo *Repository, ownerID int64) *domain.Resume {
	t.Helper()

	resume := &domain.Resume{
		UserID:    ownerID,
		Title:     "后端工程师申请",
		Introduce: "一份足够长的自我介绍",
	}
	require.NoError(t, repo.CreateResume(resume))

	return resume
}

func TestCreateUser(t *testing.T) {
	repo := newTestRepository(t)

	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	assert.NotZero(t, user.ID)
	assert.Equal(t, int32(1), user.Version)

	found, err := repo.GetUserByEmail("zhangsan@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, domain.RoleApplicant, found.Role)

	// 重复邮箱会触发唯一约束
	err = repo.CreateUser(&domain.User{
		Email:        "zhangsan@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "李四",
		Role:         domain.RoleApplicant,
	})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "users_email_key", pgErr.ConstraintName)
}

func TestResumeLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)

	resume := createTestResume(t, repo, user.ID)
	assert.Equal(t, domain.StatusApply, resume.Status)

	found, err := repo.GetResumeByID(resume.ID)
	require.NoError(t, err)
	assert.Equal(t, "测试用户", found.AuthorName)
	assert.Equal(t, resume.Title, found.Title)

	found.Title = "资深后端工程师申请"
	require.NoError(t, repo.UpdateResume(found))
	assert.Equal(t, int32(2), found.Version)

	// 带着过期的版本号更新会失败
	stale := &domain.Resume{ID: resume.ID, Title: "过期的修改", Introduce: "过期的修改", Version: 1}
	assert.ErrorIs(t, repo.UpdateResume(stale), sql.ErrNoRows)

	require.NoError(t, repo.DeleteResume(resume.ID))
	_, err = repo.GetResumeByID(resume.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetResumesFilters(t *testing.T) {
	repo := newTestRepository(t)
	zhangsan := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	lisi := createTestUser(t, repo, "lisi@example.com", domain.RoleApplicant)
	recruiter := createTestUser(t, repo, "recruiter@example.com", domain.RoleRecruiter)

	first := createTestResume(t, repo, zhangsan.ID)
	createTestResume(t, repo, lisi.ID)

	_, err := repo.UpdateResumeStatus(first, recruiter.ID, domain.StatusPass, "简历筛选通过")
	require.NoError(t, err)

	all, err := repo.GetResumes(nil, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := repo.GetResumes(&zhangsan.ID, "", false)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, zhangsan.ID, mine[0].UserID)

	passed, err := repo.GetResumes(nil, domain.StatusPass, false)
	require.NoError(t, err)
	require.Len(t, passed, 1)
	assert.Equal(t, first.ID, passed[0].ID)
}

func TestUpdateResumeStatus(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	recruiter := createTestUser(t, repo, "recruiter@example.com", domain.RoleRecruiter)
	resume := createTestResume(t, repo, user.ID)

	statusLog, err := repo.UpdateResumeStatus(resume, recruiter.ID, domain.StatusPass, "简历筛选通过")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApply, statusLog.PreviousStatus)
	assert.Equal(t, domain.StatusPass, statusLog.NewStatus)
	assert.Equal(t, domain.StatusPass, resume.Status)

	found, err := repo.GetResumeByID(resume.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPass, found.Status)
}

// 状态更新和日志写入在同一个事务中，日志插入失败时状态也必须回滚。
// 用一个不存在的招聘负责人 ID 触发外键冲突来验证。
func TestUpdateResumeStatusAtomicity(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	resume := createTestResume(t, repo, user.ID)

	_, err := repo.UpdateResumeStatus(resume, 99999, domain.StatusPass, "不存在的操作者")
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))

	found, err := repo.GetResumeByID(resume.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApply, found.Status)
	assert.Equal(t, int32(1), found.Version)

	logs, err := repo.GetResumeStatusLogs(resume.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestUpdateResumeStatusConflict(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	recruiter := createTestUser(t, repo, "recruiter@example.com", domain.RoleRecruiter)
	resume := createTestResume(t, repo, user.ID)

	stale := &domain.Resume{ID: resume.ID, Status: resume.Status, Version: 99}
	_, err := repo.UpdateResumeStatus(stale, recruiter.ID, domain.StatusPass, "过期的版本")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	logs, err := repo.GetResumeStatusLogs(resume.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestGetResumeStatusLogsOrder(t *testing.T) {
	repo := newTestRepository(t)
	user := createTestUser(t, repo, "zhangsan@example.com", domain.RoleApplicant)
	recruiter := createTestUser(t, repo, "recruiter@example.com", domain.RoleRecruiter)
	resume := createTestResume(t, repo, user.ID)

	statuses := []domain.ResumeStatus{domain.StatusPass, domain.StatusInterview1, domain.StatusInterview2}
	for _, status := range statuses {
		_, err := repo.UpdateResumeStatus(resume, recruiter.ID, status, "继续流程")
		require.NoError(t, err)
	}

	logs, err := repo.GetResumeStatusLogs(resume.ID)
	require.NoError(t, err)
	require.Len(t, logs, len(statuses))

	// 最新的日志在前
	assert.Equal(t, domain.StatusInterview2, logs[0].NewStatus)
	assert.Equal(t, domain.StatusInterview1, logs[1].NewStatus)
	assert.Equal(t, domain.StatusPass, logs[2].NewStatus)
}
