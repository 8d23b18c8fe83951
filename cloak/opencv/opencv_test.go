//go:build gocv

package opencv

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/cloak/cloak"
)

func halfBlue(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSegmenter_MatchesPureGo(t *testing.T) {
	frame := halfBlue(32, 16)
	r, _ := cloak.LookupRange("blue")

	got := NewSegmenter().Segment(frame, r)
	want := cloak.NewColorSegmenter().Segment(frame, r)
	require.Equal(t, want.Bounds(), got.Bounds())
	assert.Equal(t, want.Pix, got.Pix)
}

func TestSmoother_MatchesPureGo(t *testing.T) {
	frame := halfBlue(32, 16)
	r, _ := cloak.LookupRange("blue")
	mask := cloak.NewColorSegmenter().Segment(frame, r)

	got := NewSmoother().Smooth(mask)
	want := cloak.NewMaskSmoother().Smooth(mask)
	require.Equal(t, want.Bounds(), got.Bounds())
	for i := range want.Pix {
		// OpenCV 转 8 位时四舍五入，纯 Go 版截断
		assert.InDelta(t, int(want.Pix[i]), int(got.Pix[i]), 1, "pix %d", i)
	}
}

func TestEngine_WithOpenCV(t *testing.T) {
	e := cloak.NewEngine(cloak.WithSegmenter(NewSegmenter()), cloak.WithSmoother(NewSmoother()))
	require.True(t, e.CaptureBackground(func() *image.NRGBA {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+3] = 255, 255
		}
		return img
	}()))

	out := e.Process(halfBlue(4, 4))
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
}
