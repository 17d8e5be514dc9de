package app

import (
	"errors"
	"fmt"

	"github.com/vendora-next/internal/config"
	"github.com/vendora-next/internal/provider"
	"github.com/vendora-next/internal/router"
	"github.com/vendora-next/internal/worker"
)

// BuildRunner 按启动模式组装服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	container := provider.NewContainer(cfg)

	services, err := buildServices(cfg, container, mode)
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		return nil, fmt.Errorf("no services for mode %q (expect all/api/worker)", mode)
	}
	return NewRunner(services...), nil
}

func buildServices(cfg *config.Config, container *provider.Container, mode string) ([]Service, error) {
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// all 模式下队列未启用时只跑 API；显式 worker 模式则必须有队列
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	return services, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
