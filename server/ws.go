package server

import (
	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	msgFrame   = "frame"
	msgCapture = "capture"
	msgColor   = "color"
)

type wsMessage struct {
	Type  string `json:"type"`
	Frame string `json:"frame,omitempty"`
	Color string `json:"color,omitempty"`
}

type wsResponse struct {
	Type string `json:"type"`
	response
}

// stream 一个连接内按顺序处理消息，回复与 HTTP 接口的返回体一致
func (s *Server) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusInternalError, "unexpected close")
	}()

	if s.cfg.Server.MaxFrameBytes > 0 {
		conn.SetReadLimit(s.cfg.Server.MaxFrameBytes)
	}

	ctx := c.Request.Context()
	id := c.GetString(requestIDKey)
	s.logger.Info("websocket connected", "request_id", id, "remote", c.ClientIP())

	for {
		var msg wsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.logger.Info("websocket closed", "request_id", id)
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if ctx.Err() == nil {
				s.logger.Warn("websocket read failed", "request_id", id, "error", err)
			}
			return
		}

		if err := wsjson.Write(ctx, conn, s.handleMessage(msg)); err != nil {
			s.logger.Warn("websocket write failed", "request_id", id, "error", err)
			return
		}
	}
}

func (s *Server) handleMessage(msg wsMessage) wsResponse {
	var resp response
	switch msg.Type {
	case msgFrame:
		resp = s.process(msg.Frame)
	case msgCapture:
		resp = s.capture(msg.Frame)
	case msgColor:
		resp = s.selectColor(msg.Color)
	default:
		resp = fail("Unknown message type")
	}
	return wsResponse{Type: msg.Type, response: resp}
}
