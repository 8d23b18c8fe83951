//go:build !gocv

package source

import "fmt"

// NewCamera 未启用 gocv 时不支持摄像头
func NewCamera(device int) (Source, error) {
	return nil, fmt.Errorf("%w: camera %d requires -tags gocv", ErrUnsupported, device)
}
