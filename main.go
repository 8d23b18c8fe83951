package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/config"
	"github.com/chaos-io/cloak/jobs"
	"github.com/chaos-io/cloak/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML 配置文件")
		mode       = flag.String("mode", "serve", "serve | run | push")
		addr       = flag.String("addr", "", "监听地址，覆盖配置")
		color      = flag.String("color", "", "斗篷颜色："+fmt.Sprint(cloak.ColorNames()))
		backend    = flag.String("backend", "", "go | opencv")
		kind       = flag.String("source", "", "帧来源：image | video | camera")
		input      = flag.String("input", "", "图片/视频路径或 URL，camera 时为设备号")
		background = flag.String("background", "", "背景图片，为空时采集第一帧")
		output     = flag.String("output", "", "输出目录")
		remote     = flag.String("remote", "", "push 模式的服务地址")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	override(&cfg.Server.Addr, *addr)
	override(&cfg.Cloak.Color, *color)
	override(&cfg.Cloak.Backend, *backend)
	override(&cfg.Source.Kind, *kind)
	override(&cfg.Source.Path, *input)
	override(&cfg.Source.Background, *background)
	override(&cfg.Output.Dir, *output)
	override(&cfg.Remote.URL, *remote)

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *mode, cfg, logger); err != nil {
		logger.Error("exit", "mode", *mode, "error", err)
		stop()
		os.Exit(1)
	}
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func run(ctx context.Context, mode string, cfg config.Config, logger *slog.Logger) error {
	switch mode {
	case "serve":
		return serve(ctx, cfg, logger)
	case "run":
		engine, err := newEngine(cfg.Cloak, logger)
		if err != nil {
			return err
		}
		return runLocal(ctx, engine, cfg, logger)
	case "push":
		return push(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	engine, err := newEngine(cfg.Cloak, logger)
	if err != nil {
		return err
	}

	sched, err := jobs.New(engine, cfg.Jobs, cfg.Cloak.JPEGQuality, logger)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		<-sched.Stop().Done()
	}()

	return server.New(engine, cfg, logger).Run(ctx)
}

// newEngine 按配置选择后端与初始颜色
func newEngine(cfg config.CloakConfig, logger *slog.Logger) (*cloak.Engine, error) {
	opts := []cloak.Option{cloak.WithLogger(logger)}
	switch cfg.Backend {
	case "", "go":
		opts = append(opts, cloak.WithSegmenter(&cloak.ColorSegmenter{KernelSize: cfg.KernelSize}))
	case "opencv":
		o, err := opencvOptions()
		if err != nil {
			return nil, err
		}
		opts = append(opts, o...)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	if cfg.Color != "" {
		if _, ok := cloak.LookupRange(cfg.Color); !ok {
			logger.Warn("unknown color, using default", "color", cfg.Color, "default", cloak.DefaultColor)
		}
		opts = append(opts, cloak.WithColor(cfg.Color))
	}
	logger.Info("engine ready", "backend", cfg.Backend, "color", cfg.Color)
	return cloak.NewEngine(opts...), nil
}
