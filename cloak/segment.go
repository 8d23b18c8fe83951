package cloak

import "image"

// Segmenter 生成二值遮挡掩码（0/1）
type Segmenter interface {
	Segment(frame *image.NRGBA, r ColorRange) *image.Gray
}

const DefaultKernelSize = 5

// ColorSegmenter 颜色区间分割 + 开闭运算
type ColorSegmenter struct {
	KernelSize int
}

func NewColorSegmenter() *ColorSegmenter {
	return &ColorSegmenter{KernelSize: DefaultKernelSize}
}

// Segment 输出与 frame 同尺寸的掩码，像素值为 0 或 1
func (s *ColorSegmenter) Segment(frame *image.NRGBA, r ColorRange) *image.Gray {
	mask := InRange(ToHSV(frame), r)

	size := s.KernelSize
	if size <= 0 {
		size = DefaultKernelSize
	}
	mask = MorphOpen(mask, size)
	mask = MorphClose(mask, size)
	return mask
}

// InRange 逐像素闭区间判断，不做色相环绕
func InRange(hsv *HSV, r ColorRange) *image.Gray {
	b := hsv.Bounds()
	mask := image.NewGray(b)
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		si := y * hsv.Stride
		di := y * mask.Stride
		for x := 0; x < w; x++ {
			if r.Contains(hsv.Pix[si], hsv.Pix[si+1], hsv.Pix[si+2]) {
				mask.Pix[di] = 1
			}
			si += 3
			di++
		}
	}
	return mask
}
