package cloak

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"
)

// ErrNoFrame 上游没有给出可用的帧（解码失败、摄像头无数据）
var ErrNoFrame = errors.New("no frame available")

// Stats 引擎计数
type Stats struct {
	Processed   uint64        `json:"processed"`
	Captured    uint64        `json:"captured"`
	Dropped     uint64        `json:"dropped"`
	LastElapsed time.Duration `json:"last_elapsed"`
}

type Option func(*Engine)

func WithSegmenter(s Segmenter) Option {
	return func(e *Engine) { e.segmenter = s }
}

func WithSmoother(s Smoother) Option {
	return func(e *Engine) { e.smoother = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithColor 初始颜色，名称未知时保持默认的 blue
func WithColor(name string) Option {
	return func(e *Engine) { e.setColor(name) }
}

// Engine 每帧执行 分割 → 平滑 → 合成
//
// 颜色区间与背景是仅有的可变状态，由同一把锁保护整个 读-改-用 过程。
type Engine struct {
	mu sync.Mutex

	segmenter Segmenter
	smoother  Smoother
	logger    *slog.Logger

	colorName  string
	colorRange ColorRange
	background BackgroundStore
	last       *image.NRGBA
	stats      Stats
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		segmenter: NewColorSegmenter(),
		smoother:  NewMaskSmoother(),
		logger:    slog.Default(),
	}
	e.setColor(DefaultColor)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process 帧无效时返回 nil，调用方应视为“本次无输出”
func (e *Engine) Process(frame *image.NRGBA) *image.NRGBA {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !validFrame(frame) {
		e.stats.Dropped++
		return nil
	}

	start := time.Now()
	mask := e.segmenter.Segment(frame, e.colorRange)
	alpha := e.smoother.Smooth(mask)

	bg := e.background.Get()
	if bg != nil && !sameSize(bg.Bounds(), frame.Bounds()) {
		e.logger.Warn("background size mismatch, passing frame through",
			"frame", frame.Bounds().Size(), "background", bg.Bounds().Size())
	}
	result := Blend(frame, alpha, bg)

	e.last = result
	e.stats.Processed++
	e.stats.LastElapsed = time.Since(start)
	return result
}

// CaptureBackground 保存当前帧作为背景，覆盖之前的背景
func (e *Engine) CaptureBackground(frame *image.NRGBA) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.background.Capture(frame) {
		return false
	}
	e.stats.Captured++
	e.logger.Info("background captured", "size", frame.Bounds().Size())
	return true
}

// SetColorRange 按名称切换颜色区间，未知名称静默忽略
func (e *Engine) SetColorRange(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.setColor(name) {
		e.logger.Debug("unknown color ignored", "color", name, "current", e.colorName)
	}
}

// SetCustomRange 直接指定上下界，名称记为 custom
func (e *Engine) SetCustomRange(r ColorRange) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.colorName = "custom"
	e.colorRange = r
}

func (e *Engine) setColor(name string) bool {
	r, ok := LookupRange(name)
	if !ok {
		return false
	}
	e.colorName = name
	e.colorRange = r
	return true
}

func (e *Engine) ColorRange() ColorRange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.colorRange
}

func (e *Engine) ColorName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.colorName
}

func (e *Engine) HasBackground() bool {
	return e.background.Get() != nil
}

// Background 返回背景的显示空间副本，没有背景时返回 nil
func (e *Engine) Background() *image.NRGBA {
	bg := e.background.Get()
	if bg == nil {
		return nil
	}
	return bg.ToNRGBA()
}

func (e *Engine) ClearBackground() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.background.Clear()
	e.logger.Info("background cleared")
}

// LastFrame 最近一次 Process 的输出
func (e *Engine) LastFrame() *image.NRGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
