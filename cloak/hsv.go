package cloak

import (
	"image"
	"math"
)

// HSV 检测色彩空间下的图像，每像素 3 字节 (H, S, V)
// H ∈ [0,179]（OpenCV 8 位约定，角度 / 2），S、V ∈ [0,255]
type HSV struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

func NewHSV(r image.Rectangle) *HSV {
	w, h := r.Dx(), r.Dy()
	return &HSV{
		Pix:    make([]uint8, 3*w*h),
		Stride: 3 * w,
		Rect:   r,
	}
}

func (p *HSV) Bounds() image.Rectangle { return p.Rect }

func (p *HSV) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *HSV) HSVAt(x, y int) (h, s, v uint8) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0, 0, 0
	}
	i := p.PixOffset(x, y)
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// RGBToHSV 8 位 RGB → HSV，与 HSVToRGB 互为逆变换（在量化误差内）
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	ri, gi, bi := int(r), int(g), int(b)
	maxC := max(ri, gi, bi)
	minC := min(ri, gi, bi)
	diff := maxC - minC

	v = uint8(maxC)
	if maxC > 0 {
		s = uint8(math.Round(float64(diff) * 255 / float64(maxC)))
	}
	if diff == 0 {
		return 0, s, v
	}

	var num int
	switch maxC {
	case ri:
		num = gi - bi
	case gi:
		num = bi - ri + 2*diff
	default:
		num = ri - gi + 4*diff
	}

	// num/diff ∈ [-1,5]，每单位对应 30（即 60°/2）
	hf := math.Round(float64(num) * 30 / float64(diff))
	if hf < 0 {
		hf += 180
	}
	if hf >= 180 {
		hf -= 180
	}
	return uint8(hf), s, v
}

// 扇区 → (b, g, r) 在 tab 中的下标
var sectorData = [6][3]int{{1, 3, 0}, {1, 0, 2}, {3, 0, 1}, {0, 2, 1}, {0, 1, 3}, {2, 1, 0}}

// HSVToRGB 8 位 HSV → RGB
func HSVToRGB(h, s, v uint8) (r, g, b uint8) {
	vf := float64(v) / 255
	if s == 0 {
		c := toByte(vf * 255)
		return c, c, c
	}
	sf := float64(s) / 255

	hf := float64(h) * 6 / 180
	for hf >= 6 {
		hf -= 6
	}
	sector := int(math.Floor(hf))
	hf -= float64(sector)

	tab := [4]float64{
		vf,
		vf * (1 - sf),
		vf * (1 - sf*hf),
		vf * (1 - sf*(1-hf)),
	}
	idx := sectorData[sector]
	b = toByte(tab[idx[0]] * 255)
	g = toByte(tab[idx[1]] * 255)
	r = toByte(tab[idx[2]] * 255)
	return r, g, b
}

// ToHSV 把显示空间帧整体转换到检测空间
func ToHSV(frame *image.NRGBA) *HSV {
	b := frame.Bounds()
	out := NewHSV(b)
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		si := frame.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * out.Stride
		for x := 0; x < w; x++ {
			out.Pix[di], out.Pix[di+1], out.Pix[di+2] = RGBToHSV(frame.Pix[si], frame.Pix[si+1], frame.Pix[si+2])
			si += 4
			di += 3
		}
	}
	return out
}

// ToNRGBA 检测空间 → 显示空间，alpha 固定为 255
func (p *HSV) ToNRGBA() *image.NRGBA {
	b := p.Rect
	out := image.NewNRGBA(b)
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		si := y * p.Stride
		di := y * out.Stride
		for x := 0; x < w; x++ {
			out.Pix[di], out.Pix[di+1], out.Pix[di+2] = HSVToRGB(p.Pix[si], p.Pix[si+1], p.Pix[si+2])
			out.Pix[di+3] = 0xff
			si += 3
			di += 4
		}
	}
	return out
}

func toByte(f float64) uint8 {
	f = math.Round(f)
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}
