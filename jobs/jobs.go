package jobs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/config"
	"github.com/chaos-io/cloak/frame"
	"github.com/chaos-io/cloak/util"
)

// Scheduler 定时任务：统计日志、最近输出帧快照
type Scheduler struct {
	cron    *cron.Cron
	engine  *cloak.Engine
	dir     string
	quality int
	logger  *slog.Logger

	mu   sync.Mutex
	last *image.NRGBA
}

// New 调度表达式为空的任务不注册
func New(engine *cloak.Engine, cfg config.JobsConfig, quality int, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		engine:  engine,
		dir:     cfg.SnapshotDir,
		quality: quality,
		logger:  logger,
	}

	if cfg.StatsSpec != "" {
		if _, err := s.cron.AddFunc(cfg.StatsSpec, s.logStats); err != nil {
			return nil, fmt.Errorf("stats job %q: %w", cfg.StatsSpec, err)
		}
	}
	if cfg.SnapshotSpec != "" {
		if cfg.SnapshotDir == "" {
			return nil, errors.New("snapshot job: empty snapshot dir")
		}
		if _, err := s.cron.AddFunc(cfg.SnapshotSpec, func() {
			if _, err := s.snapshot(); err != nil {
				s.logger.Error("snapshot failed", "error", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("snapshot job %q: %w", cfg.SnapshotSpec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度，返回的 ctx 在运行中的任务结束后 Done
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) logStats() {
	st := s.engine.Stats()
	s.logger.Info("cloak stats",
		"color", s.engine.ColorName(),
		"background", s.engine.HasBackground(),
		"processed", st.Processed,
		"captured", st.Captured,
		"dropped", st.Dropped,
		"last_elapsed", st.LastElapsed,
	)
}

// snapshot 保存最近一次输出，与上次相同或还没有输出时跳过，返回写入的路径
func (s *Scheduler) snapshot() (string, error) {
	img := s.engine.LastFrame()
	if img == nil {
		return "", nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if img == s.last {
		return "", nil
	}

	path := filepath.Join(s.dir, ksuid.New().String()+".jpg")
	quality := s.quality
	if quality <= 0 {
		quality = frame.DefaultJPEGQuality
	}
	if err := util.SaveImage(path, img, quality); err != nil {
		return "", err
	}
	s.last = img
	s.logger.Debug("snapshot saved", "path", path)
	return path, nil
}
