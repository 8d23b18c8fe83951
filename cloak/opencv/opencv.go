//go:build gocv

// Package opencv 用 OpenCV（gocv）实现分割与平滑，需要本地安装 OpenCV 并以 -tags gocv 编译
package opencv

import (
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/chaos-io/cloak/cloak"
)

// Segmenter cv::inRange + MORPH_OPEN + MORPH_CLOSE
type Segmenter struct {
	KernelSize int
}

func NewSegmenter() *Segmenter {
	return &Segmenter{KernelSize: cloak.DefaultKernelSize}
}

func (s *Segmenter) Segment(frame *image.NRGBA, r cloak.ColorRange) *image.Gray {
	mask, err := s.segment(frame, r)
	if err != nil {
		// 回退到纯 Go 实现，保证输出尺寸不变
		slog.Warn("opencv segment failed, falling back", "error", err)
		return cloak.NewColorSegmenter().Segment(frame, r)
	}
	return mask
}

func (s *Segmenter) segment(frame *image.NRGBA, r cloak.ColorRange) (*image.Gray, error) {
	// ImageToMatRGB 输出 BGR 顺序的 CV_8UC3
	bgr, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("image to mat: %w", err)
	}
	defer func() {
		_ = bgr.Close()
	}()

	hsv := gocv.NewMat()
	defer func() {
		_ = hsv.Close()
	}()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer func() {
		_ = mask.Close()
	}()
	gocv.InRangeWithScalar(hsv, scalar(r.Lower), scalar(r.Upper), &mask)

	size := s.KernelSize
	if size <= 0 {
		size = cloak.DefaultKernelSize
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size))
	defer func() {
		_ = kernel.Close()
	}()

	opened := gocv.NewMat()
	defer func() {
		_ = opened.Close()
	}()
	gocv.MorphologyEx(mask, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer func() {
		_ = closed.Close()
	}()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	out, err := toGray(closed)
	if err != nil {
		return nil, err
	}
	// inRange 输出 0/255，这里统一成 0/1
	for i, v := range out.Pix {
		if v != 0 {
			out.Pix[i] = 1
		}
	}
	return withBounds(out, frame.Bounds()), nil
}

// Smoother GaussianBlur + Sobel 梯度羽化
type Smoother struct{}

func NewSmoother() *Smoother {
	return &Smoother{}
}

func (s *Smoother) Smooth(mask *image.Gray) *image.Gray {
	out, err := s.smooth(mask)
	if err != nil {
		slog.Warn("opencv smooth failed, falling back", "error", err)
		return cloak.NewMaskSmoother().Smooth(mask)
	}
	return out
}

func (s *Smoother) smooth(mask *image.Gray) (*image.Gray, error) {
	binary := image.NewGray(image.Rect(0, 0, mask.Bounds().Dx(), mask.Bounds().Dy()))
	b := mask.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			if row[x] != 0 {
				binary.Pix[y*binary.Stride+x] = 1
			}
		}
	}

	src, err := gocv.ImageGrayToMatGray(binary)
	if err != nil {
		return nil, fmt.Errorf("gray to mat: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	field := gocv.NewMat()
	defer func() {
		_ = field.Close()
	}()
	src.ConvertTo(&field, gocv.MatTypeCV32F)

	blurred := gocv.NewMat()
	defer func() {
		_ = blurred.Close()
	}()
	gocv.GaussianBlur(field, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	gx, gy := gocv.NewMat(), gocv.NewMat()
	defer func() {
		_ = gx.Close()
		_ = gy.Close()
	}()
	gocv.Sobel(blurred, &gx, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderDefault)
	gocv.Sobel(blurred, &gy, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderDefault)

	mag := gocv.NewMat()
	defer func() {
		_ = mag.Close()
	}()
	gocv.Magnitude(gx, gy, &mag)
	gocv.Threshold(mag, &mag, 1, 1, gocv.ThresholdTrunc)
	mag.MultiplyFloat(cloak.EdgeAttenuation)

	blurred64 := gocv.NewMat()
	defer func() {
		_ = blurred64.Close()
	}()
	blurred.ConvertTo(&blurred64, gocv.MatTypeCV64F)

	alpha := gocv.NewMat()
	defer func() {
		_ = alpha.Close()
	}()
	gocv.Subtract(blurred64, mag, &alpha)
	gocv.Threshold(alpha, &alpha, 1, 1, gocv.ThresholdTrunc)
	gocv.Threshold(alpha, &alpha, 0, 0, gocv.ThresholdToZero)

	u8 := gocv.NewMat()
	defer func() {
		_ = u8.Close()
	}()
	alpha.ConvertToWithParams(&u8, gocv.MatTypeCV8U, 255, 0)

	out, err := toGray(u8)
	if err != nil {
		return nil, err
	}
	return withBounds(out, b), nil
}

func scalar(v [3]uint8) gocv.Scalar {
	return gocv.NewScalar(float64(v[0]), float64(v[1]), float64(v[2]), 0)
}

func toGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, fmt.Errorf("mat to image: %w", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected mat image type %T", img)
	}
	return g, nil
}

// withBounds 把原点在 (0,0) 的结果挪到与输入一致的坐标
func withBounds(g *image.Gray, r image.Rectangle) *image.Gray {
	g.Rect = r
	return g
}
