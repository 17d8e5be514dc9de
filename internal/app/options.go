package app

import (
	"os"
	"time"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/logger"

	"go.uber.org/zap"
)

// 启动模式：all 同进程跑 API 与 worker，api/worker 各自独立部署
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 10 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
