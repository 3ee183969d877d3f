package repository

import (
	"context"
	"time"

	"github.com/resume-hub/backend/internal/domain"
)

func (r *Repository) CreateResume(resume *domain.Resume) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO resumes (user_id, title, introduce)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at, updated_at, version
	`

	args := []any{resume.UserID, resume.Title, resume.Introduce}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&resume.ID, &resume.Status, &resume.CreatedAt, &resume.UpdatedAt, &resume.Version); err != nil {
		return err
	}

	return nil
}

// GetResumes 按创建时间排序返回简历列表。
// ownerID 不为 nil 时只返回该用户自己的简历（求职者视角），
// status 不为空时按状态过滤。
func (r *Repository) GetResumes(ownerID *int64, status domain.ResumeStatus, sortAsc bool) ([]*domain.Resume, error) {
	query := `
		SELECT r.id, r.user_id, u.name, r.title, r.introduce, r.status, r.created_at, r.updated_at, r.version
		FROM resumes r
		JOIN users u ON u.id = r.user_id
		WHERE ($1::bigint IS NULL OR r.user_id = $1)
		  AND ($2::text = '' OR r.status = $2)
		ORDER BY
			CASE WHEN $3 THEN r.created_at END ASC,
			CASE WHEN NOT $3 THEN r.created_at END DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, ownerID, string(status), sortAsc)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resumes := make([]*domain.Resume, 0)
	for rows.Next() {
		resume := &domain.Resume{}
		dst := []any{&resume.ID, &resume.UserID, &resume.AuthorName, &resume.Title, &resume.Introduce, &resume.Status, &resume.CreatedAt, &resume.UpdatedAt, &resume.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		resumes = append(resumes, resume)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resumes, nil
}

func (r *Repository) GetResumeByID(id int64) (*domain.Resume, error) {
	query := `
		SELECT r.user_id, u.name, r.title, r.introduce, r.status, r.created_at, r.updated_at, r.version
		FROM resumes r
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	resume := &domain.Resume{
		ID: id,
	}

	dst := []any{&resume.UserID, &resume.AuthorName, &resume.Title, &resume.Introduce, &resume.Status, &resume.CreatedAt, &resume.UpdatedAt, &resume.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return resume, nil
}

func (r *Repository) UpdateResume(resume *domain.Resume) error {
	query := `
		UPDATE resumes
		SET
			title = $1,
			introduce = $2,
			updated_at = now(),
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING updated_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{resume.Title, resume.Introduce, resume.ID, resume.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&resume.UpdatedAt, &resume.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteResume(id int64) error {
	query := `
		DELETE FROM resumes WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

// UpdateResumeStatus 在同一个事务中更新简历状态并追加一条状态日志，
// 两个写入要么一起提交要么一起回滚，保证状态和审计日志不会分叉。
// 版本号条件保证并发修改不会覆盖彼此，冲突时返回 sql.ErrNoRows。
func (r *Repository) UpdateResumeStatus(resume *domain.Resume, recruiterID int64, newStatus domain.ResumeStatus, reason string) (*domain.ResumeStatusLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	statusLog := &domain.ResumeStatusLog{
		ResumeID:       resume.ID,
		RecruiterID:    recruiterID,
		PreviousStatus: resume.Status,
		NewStatus:      newStatus,
		Reason:         reason,
	}

	query := `
		UPDATE resumes
		SET
			status = $1,
			updated_at = now(),
			version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING updated_at, version
	`

	args := []any{newStatus, resume.ID, resume.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&resume.UpdatedAt, &resume.Version); err != nil {
		return nil, err
	}

	query = `
		INSERT INTO resume_status_logs (resume_id, recruiter_id, previous_status, new_status, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at
	`

	args = []any{statusLog.ResumeID, statusLog.RecruiterID, statusLog.PreviousStatus, statusLog.NewStatus, statusLog.Reason}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&statusLog.ID, &statusLog.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	resume.Status = newStatus

	return statusLog, nil
}

// GetResumeStatusLogs 返回某份简历的状态日志，最新的在前。
func (r *Repository) GetResumeStatusLogs(resumeID int64) ([]*domain.ResumeStatusLog, error) {
	query := `
		SELECT id, recruiter_id, previous_status, new_status, reason, updated_at
		FROM resume_status_logs
		WHERE resume_id = $1
		ORDER BY updated_at DESC, id DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.ResumeStatusLog, 0)
	for rows.Next() {
		statusLog := &domain.ResumeStatusLog{
			ResumeID: resumeID,
		}
		dst := []any{&statusLog.ID, &statusLog.RecruiterID, &statusLog.PreviousStatus, &statusLog.NewStatus, &statusLog.Reason, &statusLog.UpdatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		logs = append(logs, statusLog)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
