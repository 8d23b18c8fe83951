package cloak

// field 单通道浮点场，行优先
type field struct {
	w, h int
	v    []float64
}

func newField(w, h int) *field {
	return &field{w: w, h: h, v: make([]float64, w*h)}
}

func (f *field) at(x, y int) float64 { return f.v[y*f.w+x] }

// 5x5 高斯（sigma 自动）即二项式核 [1 4 6 4 1]/16
var gaussian5 = []float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}

// 3x3 Sobel：平滑分量与一阶差分分量
var (
	sobelSmooth = []float64{1, 2, 1}
	sobelDeriv  = []float64{-1, 0, 1}
)

// reflect101 边界延拓：... 2 1 | 0 1 2 ... n-1 | n-2 n-3 ...
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// separable 先用 kx 做行卷积，再用 ky 做列卷积，边界统一按 reflect101
func separable(src *field, kx, ky []float64) *field {
	w, h := src.w, src.h
	rx, ry := len(kx)/2, len(ky)/2

	tmp := newField(w, h)
	for y := 0; y < h; y++ {
		row := src.v[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float64
			for k, c := range kx {
				sum += c * row[reflect101(x+k-rx, w)]
			}
			tmp.v[y*w+x] = sum
		}
	}

	out := newField(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k, c := range ky {
				sum += c * tmp.v[reflect101(y+k-ry, h)*w+x]
			}
			out.v[y*w+x] = sum
		}
	}
	return out
}

func gaussianBlur5(f *field) *field {
	return separable(f, gaussian5, gaussian5)
}

// sobel 返回 x、y 方向的一阶导数响应
func sobel(f *field) (gx, gy *field) {
	gx = separable(f, sobelDeriv, sobelSmooth)
	gy = separable(f, sobelSmooth, sobelDeriv)
	return gx, gy
}
