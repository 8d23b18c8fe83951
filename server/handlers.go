package server

import (
	"bytes"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/frame"
)

const (
	errNoFrameData      = "No frame data"
	errDecodeFrame      = "Failed to decode frame"
	errProcessingFailed = "Processing failed"
)

type frameRequest struct {
	Frame string `json:"frame"`
}

type colorRequest struct {
	Color string `json:"color"`
}

type response struct {
	Success bool   `json:"success"`
	Frame   string `json:"frame,omitempty"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Color      string           `json:"color"`
	Range      cloak.ColorRange `json:"range"`
	Background bool             `json:"background"`
	Stats      cloak.Stats      `json:"stats"`
}

func fail(msg string) response {
	return response{Error: msg}
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"colors":  cloak.ColorNames(),
		"current": s.engine.ColorName(),
	})
}

func (s *Server) processFrame(c *gin.Context) {
	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.process(req.Frame))
}

func (s *Server) captureBackground(c *gin.Context) {
	var req frameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.capture(req.Frame))
}

func (s *Server) setColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.selectColor(req.Color))
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Color:      s.engine.ColorName(),
		Range:      s.engine.ColorRange(),
		Background: s.engine.HasBackground(),
		Stats:      s.engine.Stats(),
	})
}

func (s *Server) colors(c *gin.Context) {
	out := make(map[string]cloak.ColorRange)
	for _, name := range cloak.ColorNames() {
		out[name], _ = cloak.LookupRange(name)
	}
	c.JSON(http.StatusOK, gin.H{"default": cloak.DefaultColor, "colors": out})
}

// background 当前背景的 JPEG，没有背景时 404
func (s *Server) background(c *gin.Context) {
	bg := s.engine.Background()
	if bg == nil {
		c.JSON(http.StatusNotFound, fail("No background captured"))
		return
	}
	var buf bytes.Buffer
	if err := frame.EncodeJPEG(&buf, bg, s.cfg.Cloak.JPEGQuality); err != nil {
		c.JSON(http.StatusInternalServerError, fail(err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}

func (s *Server) clearBackground(c *gin.Context) {
	s.engine.ClearBackground()
	c.JSON(http.StatusOK, response{Success: true})
}

// process、capture、selectColor 由 HTTP 与 websocket 共用

func (s *Server) process(data string) response {
	f, msg := s.decode(data)
	if f == nil {
		return fail(msg)
	}
	out := s.engine.Process(f)
	if out == nil {
		return fail(errProcessingFailed)
	}
	url, err := frame.EncodeDataURL(out, s.cfg.Cloak.JPEGQuality)
	if err != nil {
		s.logger.Error("encode frame failed", "error", err)
		return fail(err.Error())
	}
	return response{Success: true, Frame: url}
}

func (s *Server) capture(data string) response {
	f, msg := s.decode(data)
	if f == nil {
		return fail(msg)
	}
	return response{Success: s.engine.CaptureBackground(f)}
}

// selectColor 未知颜色同样返回成功，引擎保持原区间
func (s *Server) selectColor(name string) response {
	if name == "" {
		name = cloak.DefaultColor
	}
	s.engine.SetColorRange(name)
	return response{Success: true}
}

func (s *Server) decode(data string) (*image.NRGBA, string) {
	if data == "" {
		return nil, errNoFrameData
	}
	f, err := frame.Decode(data, s.cfg.Cloak.MaxFrameSize)
	if err != nil {
		s.logger.Warn("decode frame failed", "error", err)
		return nil, errDecodeFrame
	}
	return f, ""
}
