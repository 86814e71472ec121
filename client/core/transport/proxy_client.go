package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// ProxyClient ElectrumX HTTP 代理客户端
//
// 请求：POST {baseURL}/{method}，body {"params": [...]}
// 响应：{"success": bool, "response": <result>, "code": int, "message": string}
type ProxyClient struct {
	http   *resty.Client
	logger log.Logger
}

var _ Caller = (*ProxyClient)(nil)

// proxyEnvelope 代理响应外壳
type proxyEnvelope struct {
	Success  bool            `json:"success"`
	Response json.RawMessage `json:"response,omitempty"`
	Code     *int            `json:"code,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// NewProxyClient 创建 HTTP 代理客户端
// 仅在网络错误和 5xx 时重试，节点返回的业务错误不重试
func NewProxyClient(baseURL string, opts Options, logger log.Logger) *ProxyClient {
	opts = opts.withDefaults()

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryAttempts).
		SetRetryWaitTime(opts.RetryBackoff).
		SetRetryMaxWaitTime(4*opts.RetryBackoff).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})

	return &ProxyClient{
		http:   client,
		logger: logger.With("module", log.ModuleTransport, "endpoint", baseURL),
	}
}

// Call 实现 Caller
func (c *ProxyClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"params": params}).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("%s: http request: %w", method, err)
	}
	c.logger.Debugf("%s -> %d (%s)", method, resp.StatusCode(), time.Since(start))

	var envelope proxyEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		if resp.IsError() {
			return fmt.Errorf("%s: http status %d", method, resp.StatusCode())
		}
		return fmt.Errorf("%s: unmarshal response: %w", method, err)
	}

	if !envelope.Success {
		rpcErr := &RPCError{Code: -1, Message: envelope.Message}
		if envelope.Code != nil {
			rpcErr.Code = *envelope.Code
		}
		if rpcErr.Message == "" {
			rpcErr.Message = fmt.Sprintf("http status %d", resp.StatusCode())
		}
		return fmt.Errorf("%s: %w", method, rpcErr)
	}

	if result != nil && len(envelope.Response) > 0 {
		if err := json.Unmarshal(envelope.Response, result); err != nil {
			return fmt.Errorf("%s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

// Close 实现 Caller（HTTP 无长连接需要关闭）
func (c *ProxyClient) Close() error {
	return nil
}
