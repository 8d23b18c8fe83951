//go:build gocv

package source

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// Camera 通过 OpenCV 读取摄像头
type Camera struct {
	device  int
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func NewCamera(device int) (Source, error) {
	c, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	c.Set(gocv.VideoCaptureConvertRGB, 1)

	slog.Info("camera opened", "device", device,
		"width", c.Get(gocv.VideoCaptureFrameWidth),
		"height", c.Get(gocv.VideoCaptureFrameHeight),
		"fps", c.Get(gocv.VideoCaptureFPS))

	return &Camera{device: device, capture: c, mat: gocv.NewMat()}, nil
}

func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, fmt.Errorf("camera %d: failed to capture", c.device)
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("camera %d: %w", c.device, err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	_ = c.mat.Close()
	return c.capture.Close()
}
