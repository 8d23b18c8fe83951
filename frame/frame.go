// Package frame 负责核心管线之外的帧格式处理：
// 任意输入图片 → 3 通道显示帧（灰度、带 alpha 的输入都会被拍平），缩放，data URL 编解码
package frame

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/chaos-io/cloak/cloak"
)

const DefaultJPEGQuality = 85

var ErrEmptyData = errors.New("empty frame data")

// Normalize 转成 alpha 恒为 255 的 NRGBA，不修改输入
//
// 带 alpha 的输入直接丢弃 alpha（不与任何底色合成），灰度输入三通道复制
func Normalize(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// ResizeWithinMax 最长边超过 maxSize 时等比缩小，maxSize <= 0 表示不缩放
func ResizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	if maxSize <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)

	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)
	return Normalize(resized)
}

// DecodeDataURL 解析 "data:image/...;base64,xxx" 或裸 base64 字符串
func DecodeDataURL(s string) (image.Image, error) {
	if _, after, ok := strings.Cut(s, "base64,"); ok {
		s = after
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyData
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return DecodeBytes(data)
}

func DecodeBytes(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Decode data URL → 可以直接送进引擎的帧
func Decode(s string, maxSize int) (*image.NRGBA, error) {
	img, err := DecodeDataURL(s)
	if err != nil {
		return nil, errors.Join(cloak.ErrNoFrame, err)
	}
	f := Normalize(img)
	if f.Bounds().Empty() {
		return nil, cloak.ErrNoFrame
	}
	return ResizeWithinMax(f, maxSize), nil
}

func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// EncodeDataURL 编码成 "data:image/jpeg;base64,..."
func EncodeDataURL(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, quality); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
