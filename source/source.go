// Package source 帧来源：静态图片、视频文件、摄像头
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/chaos-io/cloak/util"
)

// Source Read 在没有更多帧时返回 io.EOF
type Source interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

var ErrUnsupported = errors.New("unsupported source")

// Open 按类型打开来源：image、video、camera
func Open(ctx context.Context, kind, path string, fps int) (Source, error) {
	switch kind {
	case "image", "":
		return NewImage(ctx, path)
	case "video":
		return NewVideo(ctx, path, fps)
	case "camera":
		device := 0
		if path != "" {
			n, err := strconv.Atoi(path)
			if err != nil {
				return nil, fmt.Errorf("camera device %q: %w", path, err)
			}
			device = n
		}
		return NewCamera(device)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}
}

// Image 单张图片，读一次后返回 io.EOF
type Image struct {
	img  image.Image
	done bool
}

func NewImage(ctx context.Context, path string) (*Image, error) {
	img, err := util.LoadImage(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	return &Image{img: img}, nil
}

// FromImage 包装已经在内存里的图片
func FromImage(img image.Image) *Image {
	return &Image{img: img}
}

func (s *Image) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done || s.img == nil {
		return nil, io.EOF
	}
	s.done = true
	return s.img, nil
}

func (s *Image) Close() error {
	s.img = nil
	return nil
}
