package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// CodeSuccess 服务端成功码
const CodeSuccess = 2000

// APIError 非 2xx 或 code != 2000
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %s (status: %d, code: %d)", e.Message, e.Status, e.Code)
}

// envelope {code, type, message, result}
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client icu-monitor REST 客户端；不重试、不缓存
type Client struct {
	httpClient *resty.Client
	baseURL    string
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// New 创建客户端
func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient, baseURL: baseURL, logger: logger}
}

// SetToken 设置后续请求的 Bearer token，空串清除
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL 服务端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().SetContext(ctx)
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// call 发送 JSON 请求并把 result 解到 out（out 可为 nil）
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.execute(req, method, path, out)
}

// callQuery GET 带查询参数
func (c *Client) callQuery(ctx context.Context, path string, query map[string]string, out any) error {
	req := c.request(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return c.execute(req, http.MethodGet, path, out)
}

func (c *Client) execute(req *resty.Request, method, path string, out any) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Error("API call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)
	if resp.IsError() || decodeErr != nil || env.Code != CodeSuccess {
		apiErr := &APIError{Status: resp.StatusCode(), Code: env.Code, Message: env.Message}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode()))
		}
		c.logger.Warn("API returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.Status),
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", path, err)
	}
	return nil
}

// download 拉取非 envelope 的二进制响应（Excel 导出）
func (c *Client) download(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.request(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
		var env envelope
		if json.Unmarshal(resp.Body(), &env) == nil && env.Message != "" {
			apiErr.Code, apiErr.Message = env.Code, env.Message
		}
		return nil, apiErr
	}
	return resp.Body(), nil
}

// Message 通用 {"message": ...} 结果
type Message struct {
	Message string `json:"message"`
}
