package app

import (
	"errors"

	"github.com/shoplite/shoplite/internal/config"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/provider"
	"github.com/shoplite/shoplite/internal/router"
	"github.com/shoplite/shoplite/internal/worker"
)

func wantsAPI(mode string) bool {
	return mode == ModeAll || mode == ModeAPI
}

func wantsWorker(mode string) bool {
	return mode == ModeAll || mode == ModeWorker
}

func buildWorkerService(cfg *config.Config, container *provider.Container) (Service, error) {
	consumer := worker.NewConsumer(container)
	return worker.NewService(&cfg.Queue, consumer)
}

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	var services []Service

	if wantsAPI(mode) {
		engine := router.SetupRouter(cfg, container, logger.Z())
		services = append(services, NewHTTPService(cfg.Server.Host+":"+cfg.Server.Port, engine))
	}

	if wantsWorker(mode) {
		switch {
		case cfg.Queue.Enabled:
			svc, err := buildWorkerService(cfg, container)
			if err != nil {
				return nil, err
			}
			services = append(services, svc)
		case mode == ModeWorker:
			return nil, errors.New("worker mode requires queue enabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return NewRunner(services...), nil
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

	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Host+":"+opts.Config.Server.Port,
		"mode", opts.Mode,
	)
	return RunWithOptions(runner, opts)
}
