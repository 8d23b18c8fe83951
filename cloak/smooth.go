package cloak

import (
	"image"
	"math"
)

// Smoother 把二值掩码变成 [0,255] 的 alpha 掩码
type Smoother interface {
	Smooth(mask *image.Gray) *image.Gray
}

// EdgeAttenuation 梯度幅值对不透明度的衰减系数
const EdgeAttenuation = 0.3

// MaskSmoother 高斯模糊 + Sobel 梯度羽化边缘
type MaskSmoother struct{}

func NewMaskSmoother() *MaskSmoother {
	return &MaskSmoother{}
}

// Smooth alpha = clamp(blur - 0.3*clamp(|∇blur|, 0, 1), 0, 1) * 255（截断取整）
func (s *MaskSmoother) Smooth(mask *image.Gray) *image.Gray {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	// 1. 归一化到 [0,1]，非零即 1
	f := newField(w, h)
	for y := 0; y < h; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				f.v[y*w+x] = 1
			}
		}
	}

	// 2. 高斯模糊
	blurred := gaussianBlur5(f)

	// 3. Sobel 梯度
	gx, gy := sobel(blurred)

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			// 4. 梯度幅值
			mag := clamp01(math.Hypot(gx.v[i], gy.v[i]))
			// 5. 边缘衰减
			a := clamp01(blurred.v[i] - EdgeAttenuation*mag)
			// 6. 缩放到 [0,255]
			out.Pix[y*out.Stride+x] = uint8(a * 255)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
