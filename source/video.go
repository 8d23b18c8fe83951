package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Video 通过 ffmpeg 把视频逐帧解码为 PNG 流
type Video struct {
	path   string
	reader *bufio.Reader
	pipe   *io.PipeReader
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	err   error
	index int
}

func NewVideo(ctx context.Context, path string, fps int) (*Video, error) {
	if path == "" {
		return nil, errors.New("empty video path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}
	if fps <= 0 {
		fps = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r, w := io.Pipe()

	cmd := ffmpeg.Input(path).
		Output("pipe:1", ffmpeg.KwArgs{
			"format": "image2pipe",
			"vcodec": "png",
			"r":      strconv.Itoa(fps),
		}).
		WithOutput(w).
		WithErrorOutput(io.Discard)
	cmd.Context = ctx

	v := &Video{
		path:   path,
		reader: bufio.NewReader(r),
		pipe:   r,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(v.done)
		err := cmd.Run()
		if err != nil && ctx.Err() == nil {
			slog.Warn("ffmpeg exited", "path", path, "error", err)
			v.setErr(err)
		}
		_ = w.CloseWithError(err)
	}()

	return v, nil
}

func (v *Video) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := png.Decode(v.reader)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if ferr := v.getErr(); ferr != nil {
				return nil, fmt.Errorf("ffmpeg %s: %w", v.path, ferr)
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode frame %d: %w", v.index, err)
	}
	v.index++
	return img, nil
}

func (v *Video) Close() error {
	v.cancel()
	_ = v.pipe.Close()
	<-v.done
	return nil
}

func (v *Video) setErr(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

func (v *Video) getErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}
