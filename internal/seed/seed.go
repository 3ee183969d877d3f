package seed

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/resume-hub/backend/internal/config"
	"github.com/resume-hub/backend/internal/domain"
	"github.com/resume-hub/backend/internal/repository"
	"github.com/resume-hub/backend/internal/utils"
)

// SeedRandomData 往数据库中插入随机的求职者、简历和状态流转记录，方便本地开发
func SeedRandomData(cfg *config.Config, r *repository.Repository) {
	// 先插入一个招聘负责人，状态流转需要用到
	recruiter, err := utils.GenerateRandomUser(cfg.Seed.UserPassword, cfg.Seed.EmailDomain, domain.RoleRecruiter)
	if err != nil {
		slog.Error("生成招聘负责人失败", "error", err)
		return
	}
	if err := r.CreateUser(recruiter); err != nil {
		slog.Error("插入招聘负责人失败", "error", err)
		return
	}

	for i := 0; i < cfg.Seed.UserCount; i++ {
		applicant, err := utils.GenerateRandomUser(cfg.Seed.UserPassword, cfg.Seed.EmailDomain, domain.RoleApplicant)
		if err != nil {
			slog.Error("生成求职者失败", "error", err)
			continue
		}
		if err := r.CreateUser(applicant); err != nil {
			slog.Error("插入求职者失败", "error", err)
			continue
		}

		// 每个求职者随机投 1~3 份简历
		resumeCount := rand.Intn(3) + 1
		for j := 0; j < resumeCount; j++ {
			resume := utils.GenerateRandomResume(applicant.ID)
			if err := r.CreateResume(resume); err != nil {
				slog.Error("插入简历失败", "error", err)
				continue
			}

			// 一部分简历走几步状态流转，顺便生成审计日志
			transitions := rand.Intn(3)
			for k := 0; k < transitions; k++ {
				newStatus := utils.GenerateRandomStatus()
				reason := fmt.Sprintf("随机流转 %s", utils.GenerateRandomID(4, 2))
				if _, err := r.UpdateResumeStatus(resume, recruiter.ID, newStatus, reason); err != nil {
					slog.Error("流转简历状态失败", "error", err)
					break
				}
			}
		}
	}

	slog.Info("插入随机数据完成")
}
