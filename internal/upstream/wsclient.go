package upstream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"multigofer/internal/jsonrpc"
)

// WSClient owns a single WebSocket connection for an endpoint and
// multiplexes request/response pairs on it by request ID.
type WSClient struct {
	wsURL          string
	endpointName   string
	messageTimeout time.Duration
	logger         zerolog.Logger

	conn    *websocket.Conn
	connMu  sync.RWMutex
	writeMu sync.Mutex

	pending   map[int64]chan *jsonrpc.Response
	pendingMu sync.Mutex
	reqID     int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWSClient creates a new WebSocket client
func NewWSClient(wsURL, endpointName string, messageTimeout time.Duration, logger zerolog.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSClient{
		wsURL:          wsURL,
		endpointName:   endpointName,
		messageTimeout: messageTimeout,
		logger:         logger,
		pending:        make(map[int64]chan *jsonrpc.Response),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Connect establishes the WebSocket connection and starts the reader goroutine
func (c *WSClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	if c.conn != nil {
		c.connMu.Unlock()
		return nil
	}
	c.connMu.Unlock()

	c.logger.Info().Msg("WebSocket connecting")
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return wrapTransportErr(c.endpointName, fmt.Errorf("failed to connect WebSocket: %w", err))
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.logger.Info().Msg("WebSocket connected")
	c.wg.Add(1)
	go c.readLoop()
	return nil
}

// Connected returns true if the WebSocket connection is established
func (c *WSClient) Connected() bool {
	c.connMu.RLock()
	ok := c.conn != nil
	c.connMu.RUnlock()
	return ok
}

// Close closes the connection and stops the reader
func (c *WSClient) Close() {
	c.cancel()
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.pendingMu.Lock()
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[int64]chan *jsonrpc.Response)
	c.pendingMu.Unlock()

	c.wg.Wait()
	c.logger.Info().Msg("WebSocket disconnected")
}

// SendRequest sends an RPC request and waits for the response
func (c *WSClient) SendRequest(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return nil, NewError(KindConnReset, c.endpointName, "WebSocket not connected", nil)
	}

	reqID := atomic.AddInt64(&c.reqID, 1)
	respChan := make(chan *jsonrpc.Response, 1)

	c.pendingMu.Lock()
	c.pending[reqID] = respChan
	c.pendingMu.Unlock()

	wsReq := req.Clone()
	wsReq.ID = jsonrpc.NewIDInt(reqID)

	reqBytes, err := wsReq.Bytes()
	if err != nil {
		c.dropPending(reqID)
		return nil, NewError(KindOther, c.endpointName, "failed to marshal request: "+err.Error(), err)
	}

	c.writeMu.Lock()
	writeErr := conn.WriteMessage(websocket.TextMessage, reqBytes)
	c.writeMu.Unlock()
	if writeErr != nil {
		c.dropPending(reqID)
		return nil, wrapTransportErr(c.endpointName, writeErr)
	}

	select {
	case resp := <-respChan:
		if resp != nil {
			resp.ID = req.ID
			return resp, nil
		}
		return nil, NewError(KindConnReset, c.endpointName, "connection closed", nil)
	case <-ctx.Done():
		c.dropPending(reqID)
		return nil, wrapTransportErr(c.endpointName, ctx.Err())
	}
}

func (c *WSClient) dropPending(reqID int64) {
	c.pendingMu.Lock()
	delete(c.pending, reqID)
	c.pendingMu.Unlock()
}

// readLoop reads messages from the connection and routes responses to waiters
func (c *WSClient) readLoop() {
	defer c.wg.Done()

	for {
		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			return
		}

		if c.messageTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.messageTimeout))
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}

		resp, err := jsonrpc.ParseResponse(data)
		if err != nil {
			c.logger.Debug().Err(err).Msg("failed to parse WebSocket message")
			continue
		}

		id, ok := resp.ID.Value().(float64)
		if !ok {
			continue
		}

		c.pendingMu.Lock()
		ch, found := c.pending[int64(id)]
		if found {
			delete(c.pending, int64(id))
		}
		c.pendingMu.Unlock()

		if found {
			ch <- resp
		}
	}
}
