package cloak

import (
	"image"
	"sync/atomic"
)

// BackgroundStore 至多保存一张背景（检测空间），整体替换
type BackgroundStore struct {
	hsv atomic.Pointer[HSV]
}

// Capture frame 为空时返回 false；不检查画面内容
func (s *BackgroundStore) Capture(frame *image.NRGBA) bool {
	if !validFrame(frame) {
		return false
	}
	s.hsv.Store(ToHSV(frame))
	return true
}

// Get 没有背景时返回 nil
func (s *BackgroundStore) Get() *HSV {
	return s.hsv.Load()
}

func (s *BackgroundStore) Clear() {
	s.hsv.Store(nil)
}

func validFrame(frame *image.NRGBA) bool {
	return frame != nil && !frame.Bounds().Empty() && len(frame.Pix) > 0
}
