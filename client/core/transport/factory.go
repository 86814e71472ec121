package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// Options 传输配置
type Options struct {
	Timeout       time.Duration `json:"timeout"`
	RetryAttempts int           `json:"retry_attempts"`
	RetryBackoff  time.Duration `json:"retry_backoff"`
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.RetryBackoff == 0 {
		o.RetryBackoff = time.Second
	}
	return o
}

// NewClient 按端点协议创建客户端
//   - http/https：ElectrumX HTTP 代理
//   - ws/wss：ElectrumX WebSocket
func NewClient(ctx context.Context, endpoint string, opts Options, logger log.Logger) (Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewElectrumClient(NewProxyClient(endpoint, opts, logger)), nil
	case "ws", "wss":
		ws, err := NewWebSocketClient(ctx, endpoint, opts, logger)
		if err != nil {
			return nil, err
		}
		return NewElectrumClient(ws), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}
