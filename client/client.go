package client

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"

	"github.com/chaos-io/cloak/cloak"
	"github.com/chaos-io/cloak/frame"
	nhttp "github.com/chaos-io/cloak/util/http"
)

const defaultTimeout = 10 * time.Second

// ErrRemote 服务端返回 success=false
var ErrRemote = errors.New("remote reported failure")

type Response struct {
	Success bool   `json:"success"`
	Frame   string `json:"frame,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Status struct {
	Color      string           `json:"color"`
	Range      cloak.ColorRange `json:"range"`
	Background bool             `json:"background"`
	Stats      cloak.Stats      `json:"stats"`
}

// Client 远程隐形斗篷服务
type Client struct {
	baseURL string
	quality int
	timeout time.Duration
	cli     nhttp.IClient
}

type Option func(*Client)

func WithHTTPClient(cli nhttp.IClient) Option {
	return func(c *Client) { c.cli = cli }
}

func WithQuality(q int) Option {
	return func(c *Client) { c.quality = q }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		quality: frame.DefaultJPEGQuality,
		timeout: defaultTimeout,
		cli:     nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessFrame 上传一帧，返回处理后的帧
func (c *Client) ProcessFrame(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	resp, err := c.postFrame(ctx, "/process_frame", img)
	if err != nil {
		return nil, err
	}
	out, err := frame.DecodeDataURL(resp.Frame)
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return frame.Normalize(out), nil
}

func (c *Client) CaptureBackground(ctx context.Context, img image.Image) error {
	_, err := c.postFrame(ctx, "/capture_background", img)
	return err
}

func (c *Client) SetColor(ctx context.Context, color string) error {
	var resp Response
	err := c.do(ctx, http.MethodPost, "/set_color", map[string]string{"color": color}, &resp)
	if err != nil {
		return err
	}
	return check(resp)
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (c *Client) postFrame(ctx context.Context, path string, img image.Image) (Response, error) {
	data, err := frame.EncodeDataURL(img, c.quality)
	if err != nil {
		return Response{}, err
	}

	var resp Response
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"frame": data}, &resp); err != nil {
		return Response{}, err
	}
	return resp, check(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	param := &nhttp.RequestParam{
		RequestURI: c.baseURL + path,
		Method:     method,
		Body:       body,
		Response:   out,
		Timeout:    c.timeout,
	}
	if err := c.cli.DoHTTPRequest(ctx, param); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func check(resp Response) error {
	if resp.Success {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRemote, resp.Error)
}
