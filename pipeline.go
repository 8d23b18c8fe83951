package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/chaos-io/cloak/client"
	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/config"
	"github.com/chaos-io/cloak/frame"
	"github.com/chaos-io/cloak/source"
	"github.com/chaos-io/cloak/util"
)

// processor 本地引擎或远程服务
type processor interface {
	capture(ctx context.Context, f *image.NRGBA) error
	process(ctx context.Context, f *image.NRGBA) (*image.NRGBA, error)
}

type localProcessor struct {
	engine *cloak.Engine
}

func (p localProcessor) capture(_ context.Context, f *image.NRGBA) error {
	if !p.engine.CaptureBackground(f) {
		return cloak.ErrNoFrame
	}
	return nil
}

func (p localProcessor) process(_ context.Context, f *image.NRGBA) (*image.NRGBA, error) {
	out := p.engine.Process(f)
	if out == nil {
		return nil, cloak.ErrNoFrame
	}
	return out, nil
}

type remoteProcessor struct {
	cli *client.Client
}

func (p remoteProcessor) capture(ctx context.Context, f *image.NRGBA) error {
	return p.cli.CaptureBackground(ctx, f)
}

func (p remoteProcessor) process(ctx context.Context, f *image.NRGBA) (*image.NRGBA, error) {
	return p.cli.ProcessFrame(ctx, f)
}

func runLocal(ctx context.Context, engine *cloak.Engine, cfg config.Config, logger *slog.Logger) error {
	return pipeline(ctx, localProcessor{engine: engine}, cfg, logger)
}

func push(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Remote.URL == "" {
		return errors.New("push mode requires a remote url")
	}
	cli := client.New(cfg.Remote.URL, client.WithQuality(cfg.Cloak.JPEGQuality))
	if cfg.Cloak.Color != "" {
		if err := cli.SetColor(ctx, cfg.Cloak.Color); err != nil {
			return fmt.Errorf("set color: %w", err)
		}
	}
	return pipeline(ctx, remoteProcessor{cli: cli}, cfg, logger)
}

// pipeline 来源 → 背景 → 逐帧处理 → 输出目录下的 JPEG
func pipeline(ctx context.Context, p processor, cfg config.Config, logger *slog.Logger) error {
	defer util.Trace("pipeline")()

	src, err := source.Open(ctx, cfg.Source.Kind, cfg.Source.Path, cfg.Source.FPS)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	needBackground := true
	if cfg.Source.Background != "" {
		bg, err := util.LoadImage(ctx, cfg.Source.Background)
		if err != nil {
			return fmt.Errorf("load background: %w", err)
		}
		if err := p.capture(ctx, prepare(bg, cfg.Cloak.MaxFrameSize)); err != nil {
			return fmt.Errorf("capture background: %w", err)
		}
		needBackground = false
	}

	written := 0
	for i := 0; ; i++ {
		img, err := src.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", i, err)
		}

		f := prepare(img, cfg.Cloak.MaxFrameSize)
		if needBackground {
			if err := p.capture(ctx, f); err != nil {
				return fmt.Errorf("capture background: %w", err)
			}
			needBackground = false
			logger.Info("first frame captured as background")
		}

		out, err := p.process(ctx, f)
		if err != nil {
			logger.Warn("frame skipped", "index", i, "error", err)
			continue
		}
		path := filepath.Join(cfg.Output.Dir, fmt.Sprintf("frame_%05d.jpg", i))
		if err := util.SaveImage(path, out, cfg.Cloak.JPEGQuality); err != nil {
			return err
		}
		written++
	}

	logger.Info("pipeline done", "frames", written, "output", cfg.Output.Dir)
	return nil
}

func prepare(img image.Image, maxSize int) *image.NRGBA {
	return frame.ResizeWithinMax(frame.Normalize(img), maxSize)
}
