package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	client := NewHTTPClient()
	httpClient, ok := client.(*HTTPClient)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, httpClient.client.Timeout)
}

func TestHTTPClient_DoHTTPRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		requestParam *RequestParam
		handler      http.HandlerFunc
		wantErrMsg   string
		check        func(t *testing.T, p *RequestParam)
	}{
		{
			name: "JSON body 与响应解析",
			requestParam: &RequestParam{
				Method:   http.MethodPost,
				Body:     map[string]string{"color": "red"},
				Response: &map[string]interface{}{},
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if r.Header.Get("Content-Type") != "application/json" || string(body) != `{"color":"red"}` {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = w.Write([]byte(`{"success": true}`))
			},
			check: func(t *testing.T, p *RequestParam) {
				assert.Equal(t, true, (*p.Response.(*map[string]interface{}))["success"])
			},
		},
		{
			name: "[]byte body 原样发送",
			requestParam: &RequestParam{
				Method: http.MethodPut,
				Header: map[string]string{"Content-Type": "image/png"},
				Body:   []byte("raw"),
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if r.Header.Get("Content-Type") != "image/png" || string(body) != "raw" {
					w.WriteHeader(http.StatusBadRequest)
				}
			},
		},
		{
			name: "io.Reader body",
			requestParam: &RequestParam{
				Method: http.MethodPost,
				Body:   strings.NewReader("reader"),
			},
			handler: func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				if string(body) != "reader" {
					w.WriteHeader(http.StatusBadRequest)
				}
			},
		},
		{
			name:         "服务器返回错误状态码",
			requestParam: &RequestParam{Method: http.MethodGet},
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("server error"))
			},
			wantErrMsg: "HTTP request failed with status 500: server error",
		},
		{
			name:         "请求超时",
			requestParam: &RequestParam{Method: http.MethodGet, Timeout: 50 * time.Millisecond},
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			},
			wantErrMsg: "context deadline exceeded",
		},
		{
			name:         "请求参数为nil",
			requestParam: nil,
			wantErrMsg:   "request param is nil",
		},
		{
			name:         "无效的URL",
			requestParam: &RequestParam{Method: http.MethodGet, RequestURI: "://invalid-url"},
			wantErrMsg:   "missing protocol scheme",
		},
		{
			name:         "JSON序列化失败",
			requestParam: &RequestParam{Method: http.MethodPost, Body: make(chan int)},
			wantErrMsg:   "json: unsupported type: chan int",
		},
		{
			name:         "响应不是 JSON",
			requestParam: &RequestParam{Method: http.MethodGet, Response: &map[string]interface{}{}},
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			wantErrMsg: "unmarshal response",
		},
		{
			name:         "空响应体",
			requestParam: &RequestParam{Method: http.MethodGet, Response: &map[string]interface{}{}},
			handler:      func(w http.ResponseWriter, r *http.Request) {},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.handler != nil {
				server := httptest.NewServer(tt.handler)
				defer server.Close()
				if tt.requestParam != nil && tt.requestParam.RequestURI == "" {
					tt.requestParam.RequestURI = server.URL
				}
			}

			err := NewHTTPClient().DoHTTPRequest(context.Background(), tt.requestParam)
			if tt.wantErrMsg != "" {
				assert.ErrorContains(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, tt.requestParam)
			}
		})
	}
}

func TestHTTPClient_DoHTTPRequest_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := NewHTTPClient().DoHTTPRequest(ctx, &RequestParam{Method: http.MethodGet, RequestURI: server.URL})
	assert.ErrorContains(t, err, "context canceled")
}
