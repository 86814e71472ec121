package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/golshanaramesh/atomicals-js/pkg/interfaces/infrastructure/log"
)

// ErrClientClosed 连接已关闭
var ErrClientClosed = errors.New("websocket client closed")

// WebSocketClient ElectrumX JSON-RPC 2.0 over WebSocket
// 请求按 id 与响应关联，可被多个 goroutine 并发使用
type WebSocketClient struct {
	conn    *websocket.Conn
	logger  log.Logger
	nextID  atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *wsResponse
	closed  bool
	readErr error

	closeOnce sync.Once
	done      chan struct{}
}

var _ Caller = (*WebSocketClient)(nil)

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type wsResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewWebSocketClient 连接 WebSocket 端点并启动读循环
func NewWebSocketClient(ctx context.Context, endpoint string, opts Options, logger log.Logger) (*WebSocketClient, error) {
	opts = opts.withDefaults()
	dialer := websocket.Dialer{HandshakeTimeout: opts.Timeout}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	c := &WebSocketClient{
		conn:    conn,
		logger:  logger.With("module", log.ModuleTransport, "endpoint", endpoint),
		pending: make(map[uint64]chan *wsResponse),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop 读取响应并分发给等待中的调用
func (c *WebSocketClient) readLoop() {
	defer close(c.done)

	for {
		var msg wsResponse
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.failPending(fmt.Errorf("websocket read: %w", err))
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.mu.Unlock()

		if !ok {
			c.logger.Debugf("drop response for unknown id %d", msg.ID)
			continue
		}
		ch <- &msg
	}
}

// failPending 连接断开时让所有等待中的调用返回错误
func (c *WebSocketClient) failPending(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		err = ErrClientClosed
	}
	c.closed = true
	c.readErr = err
	for id, ch := range c.pending {
		ch <- &wsResponse{ID: id, Error: &RPCError{Code: -1, Message: err.Error()}}
		delete(c.pending, id)
	}
}

// Call 实现 Caller
func (c *WebSocketClient) Call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	id := c.nextID.Add(1)
	ch := make(chan *wsResponse, 1)

	c.mu.Lock()
	if c.closed {
		err := c.readErr
		c.mu.Unlock()
		if err == nil {
			err = ErrClientClosed
		}
		return fmt.Errorf("%s: %w", method, err)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(&wsRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("%s: websocket write: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.dropPending(id)
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("%s: unmarshal result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *WebSocketClient) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Close 关闭连接并等待读循环退出
func (c *WebSocketClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()

		err = c.conn.Close()
		<-c.done
	})
	return err
}
