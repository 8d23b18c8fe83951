package cloak

import "image"

// 方形结构元素的形态学运算，作用于 0/1 掩码
// 图像外的邻居不参与计算（腐蚀不会从边界“吃进来”，膨胀也不会从边界“长出来”）

func erode(m *image.Gray, size int) *image.Gray {
	return rankFilter(m, size, func(a, b uint8) uint8 { return min(a, b) })
}

func dilate(m *image.Gray, size int) *image.Gray {
	return rankFilter(m, size, func(a, b uint8) uint8 { return max(a, b) })
}

// MorphOpen 开运算：先腐蚀后膨胀，去掉孤立的误检点
func MorphOpen(m *image.Gray, size int) *image.Gray {
	return dilate(erode(m, size), size)
}

// MorphClose 闭运算：先膨胀后腐蚀，填补区域内部的小洞
func MorphClose(m *image.Gray, size int) *image.Gray {
	return erode(dilate(m, size), size)
}

// rankFilter 矩形窗口可分离：先按行、再按列
func rankFilter(m *image.Gray, size int, pick func(a, b uint8) uint8) *image.Gray {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	lo := (size - 1) / 2
	hi := size - 1 - lo

	tmp := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		row := m.Pix[m.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-lo), min(w-1, x+hi)
			acc := row[x0]
			for k := x0 + 1; k <= x1; k++ {
				acc = pick(acc, row[k])
			}
			tmp[y*w+x] = acc
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-lo), min(h-1, y+hi)
		for x := 0; x < w; x++ {
			acc := tmp[y0*w+x]
			for k := y0 + 1; k <= y1; k++ {
				acc = pick(acc, tmp[k*w+x])
			}
			out.Pix[y*out.Stride+x] = acc
		}
	}
	return out
}
