package util

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveImage_OpenImage(t *testing.T) {
	t.Parallel()

	defer Trace("save and open")()

	img := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	img.SetNRGBA(1, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255})

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "nested", "a.png")
	require.NoError(t, SaveImage(pngPath, img, 0))

	got, err := OpenImage(pngPath)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())
	r, g, b, _ := got.At(1, 2).RGBA()
	assert.Equal(t, [3]uint32{9, 8, 7}, [3]uint32{r >> 8, g >> 8, b >> 8})

	jpgPath := filepath.Join(dir, "b.jpg")
	require.NoError(t, SaveImage(jpgPath, img, 90))
	got, err = LoadImage(context.Background(), jpgPath)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())

	_, err = OpenImage(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestDownloadImage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/img.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = png.Encode(w, image.NewGray(image.Rect(0, 0, 3, 3)))
	}))
	defer server.Close()

	img, err := LoadImage(context.Background(), server.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())

	_, err = DownloadImage(context.Background(), server.URL+"/nope.png")
	assert.ErrorContains(t, err, "status 404")
}
