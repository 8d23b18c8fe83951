package cloak

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlend(t *testing.T) {
	t.Parallel()

	frame := gradientFrame(7, 5)
	bg := ToHSV(solidFrame(7, 5, red))

	t.Run("没有背景时原样返回", func(t *testing.T) {
		t.Parallel()
		out := Blend(frame, filledMask(7, 5, 255), nil)
		assert.Same(t, frame, out)
	})

	t.Run("alpha 全 0 等于原帧", func(t *testing.T) {
		t.Parallel()
		out := Blend(frame, filledMask(7, 5, 0), bg)
		assert.Equal(t, frame.Pix, out.Pix)
	})

	t.Run("alpha 全 255 等于背景", func(t *testing.T) {
		t.Parallel()
		out := Blend(frame, filledMask(7, 5, 255), bg)
		assert.Equal(t, solidFrame(7, 5, red).Pix, out.Pix)
	})

	t.Run("半透明按比例混合", func(t *testing.T) {
		t.Parallel()
		black := solidFrame(2, 1, color.NRGBA{A: 255})
		out := Blend(black, filledMask(2, 1, 51), ToHSV(solidFrame(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})))
		// 51/255 = 0.2
		r, g, b := HSVToRGB(RGBToHSV(200, 100, 50))
		assert.Equal(t, color.NRGBA{R: round(float64(r) * 0.2), G: round(float64(g) * 0.2), B: round(float64(b) * 0.2), A: 255}, out.NRGBAAt(0, 0))
	})

	t.Run("尺寸不一致时原样返回", func(t *testing.T) {
		t.Parallel()
		out := Blend(frame, filledMask(7, 5, 255), ToHSV(solidFrame(3, 3, red)))
		assert.Same(t, frame, out)
	})
}

func TestBlend_CaptureRoundTrip(t *testing.T) {
	t.Parallel()

	background := gradientFrame(16, 12)
	var store BackgroundStore
	require.True(t, store.Capture(background))

	out := Blend(solidFrame(16, 12, blue), filledMask(16, 12, 255), store.Get())
	require.Equal(t, background.Bounds(), out.Bounds())
	for i := range out.Pix {
		assert.InDelta(t, int(background.Pix[i]), int(out.Pix[i]), 6, "pix %d", i)
	}
}

func TestBackgroundStore(t *testing.T) {
	t.Parallel()

	var store BackgroundStore
	assert.Nil(t, store.Get())

	assert.False(t, store.Capture(nil))
	assert.False(t, store.Capture(image.NewNRGBA(image.Rect(0, 0, 0, 0))))
	assert.Nil(t, store.Get())

	require.True(t, store.Capture(solidFrame(2, 2, red)))
	first := store.Get()
	require.NotNil(t, first)

	require.True(t, store.Capture(solidFrame(2, 2, blue)))
	second := store.Get()
	assert.NotSame(t, first, second)
	h, _, _ := second.HSVAt(0, 0)
	assert.Equal(t, uint8(120), h)

	store.Clear()
	assert.Nil(t, store.Get())
}

func gradientFrame(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: uint8((x + y) * 8),
				A: 255,
			})
		}
	}
	return img
}

func round(f float64) uint8 {
	return toByte(f)
}
