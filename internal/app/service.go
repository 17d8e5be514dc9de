package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 可托管服务的统一契约
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 服务运行器，任一服务退出即触发整体停机
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务并阻塞，直到收到信号或任一服务退出
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(r.services))
	for _, svc := range r.services {
		go r.startService(ctx, svc, errCh, logger)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}

	cancel()
	r.stopAll(stopTimeout, logger)

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (r *Runner) startService(ctx context.Context, svc Service, errCh chan<- error, logger *zap.SugaredLogger) {
	if svc == nil {
		errCh <- errors.New("service is nil")
		return
	}
	name := svc.Name()
	if logger != nil {
		logger.Infow("service_start", "service", name)
	}
	if err := svc.Start(ctx); err != nil {
		errCh <- fmt.Errorf("%s: %w", name, err)
	} else {
		errCh <- nil
	}
	if logger != nil {
		logger.Infow("service_exit", "service", name)
	}
}

// stopAll 按注册顺序停止，入口服务先于后台消费者
func (r *Runner) stopAll(stopTimeout time.Duration, logger *zap.SugaredLogger) {
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil && logger != nil {
			logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}
