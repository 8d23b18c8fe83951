package client

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/config"
	"github.com/chaos-io/cloak/server"
	nhttp "github.com/chaos-io/cloak/util/http"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func newRemote(t *testing.T) (*Client, *cloak.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := cloak.NewEngine(cloak.WithLogger(logger))
	ts := httptest.NewServer(server.New(engine, config.Default(), logger).Handler())
	t.Cleanup(ts.Close)
	// 质量 100 减少 JPEG 色偏
	return New(ts.URL+"/", WithQuality(100)), engine
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()
	c, engine := newRemote(t)
	ctx := context.Background()

	require.NoError(t, c.SetColor(ctx, "blue"))
	require.NoError(t, c.CaptureBackground(ctx, solid(8, 8, color.NRGBA{R: 255, A: 255})))
	assert.True(t, engine.HasBackground())

	out, err := c.ProcessFrame(ctx, solid(8, 8, color.NRGBA{B: 255, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(8, 8), out.Bounds().Size())
	px := out.NRGBAAt(4, 4)
	assert.Greater(t, int(px.R), 200)
	assert.Less(t, int(px.B), 60)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "blue", st.Color)
	assert.True(t, st.Background)
	assert.Equal(t, uint64(1), st.Stats.Processed)
	assert.Equal(t, uint64(1), st.Stats.Captured)
}

func TestClient_SetUnknownColor(t *testing.T) {
	t.Parallel()
	c, engine := newRemote(t)

	require.NoError(t, c.SetColor(context.Background(), "red"))
	require.NoError(t, c.SetColor(context.Background(), "magenta"))
	assert.Equal(t, "red", engine.ColorName())
}

type fakeHTTP struct {
	resp Response
	err  error
	got  *nhttp.RequestParam
}

func (f *fakeHTTP) DoHTTPRequest(_ context.Context, p *nhttp.RequestParam) error {
	f.got = p
	if f.err != nil {
		return f.err
	}
	if r, ok := p.Response.(*Response); ok {
		*r = f.resp
	}
	return nil
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("远程失败", func(t *testing.T) {
		t.Parallel()
		fake := &fakeHTTP{resp: Response{Error: "Failed to decode frame"}}
		c := New("http://cloak.local", WithHTTPClient(fake))

		_, err := c.ProcessFrame(context.Background(), solid(2, 2, color.NRGBA{A: 255}))
		require.ErrorIs(t, err, ErrRemote)
		assert.Contains(t, err.Error(), "Failed to decode frame")
		assert.Equal(t, "http://cloak.local/process_frame", fake.got.RequestURI)
		assert.Equal(t, defaultTimeout, fake.got.Timeout)
	})

	t.Run("传输错误", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection refused")
		c := New("http://cloak.local", WithHTTPClient(&fakeHTTP{err: boom}))

		err := c.SetColor(context.Background(), "red")
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrRemote)
	})

	t.Run("结果帧无法解码", func(t *testing.T) {
		t.Parallel()
		c := New("http://cloak.local", WithHTTPClient(&fakeHTTP{resp: Response{Success: true}}))

		_, err := c.ProcessFrame(context.Background(), solid(2, 2, color.NRGBA{A: 255}))
		assert.Error(t, err)
	})
}
