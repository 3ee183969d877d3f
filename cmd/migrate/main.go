package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/resume-hub/backend/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// 按文件名顺序执行 migrations 目录下的所有 SQL 文件
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	files, err := filepath.Glob("./migrations/*.sql")
	if err != nil {
		logger.Error("无法读取迁移文件", "error", err)
		return
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Error("无法读取迁移文件", "file", file, "error", err)
			return
		}

		if _, err := dbpool.Exec(string(content)); err != nil {
			logger.Error("执行迁移失败", "file", file, "error", err)
			return
		}

		logger.Info("迁移执行成功", "file", file)
	}
}
