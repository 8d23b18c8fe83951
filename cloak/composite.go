package cloak

import (
	"image"
	"math"
)

// Blend out = frame*(1-a) + background*a，a = alpha/255，逐通道四舍五入并截断到 [0,255]
//
// background 为 nil 时原样返回 frame。尺寸不一致时同样返回 frame，由调用方决定是否重新采集背景。
func Blend(frame *image.NRGBA, alpha *image.Gray, background *HSV) *image.NRGBA {
	if background == nil {
		return frame
	}
	fb := frame.Bounds()
	if !sameSize(fb, alpha.Bounds()) || !sameSize(fb, background.Bounds()) {
		return frame
	}

	bg := background.ToNRGBA()
	out := image.NewNRGBA(fb)
	w, h := fb.Dx(), fb.Dy()
	ab := alpha.Bounds()
	for y := 0; y < h; y++ {
		fi := frame.PixOffset(fb.Min.X, fb.Min.Y+y)
		ai := alpha.PixOffset(ab.Min.X, ab.Min.Y+y)
		bi := y * bg.Stride
		oi := y * out.Stride
		for x := 0; x < w; x++ {
			a := float64(alpha.Pix[ai]) / 255
			for c := 0; c < 3; c++ {
				v := float64(frame.Pix[fi+c])*(1-a) + float64(bg.Pix[bi+c])*a
				out.Pix[oi+c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
			}
			out.Pix[oi+3] = 0xff
			fi += 4
			ai++
			bi += 4
			oi += 4
		}
	}
	return out
}

func sameSize(a, b image.Rectangle) bool {
	return a.Dx() == b.Dx() && a.Dy() == b.Dy()
}
