package remotehost

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets how long a request waits for its response.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client is a host.Host backed by a remote Server. Host methods block until
// the server responds. Signal handlers run only inside Dispatch.
type Client struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	timeout time.Duration
	root    *Ref

	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   uint64
	waiting  map[uint64]chan Message
	handlers map[string]host.Handler
	queue    []Message
	closed   bool
	shutdown bool
	err      error

	ready chan struct{}
	done  chan struct{}
}

var _ host.Host = (*Client)(nil)

// Dial connects to a Server at url and waits for its hello.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.New("B050").WithDetail("dial " + url).Wrap(err)
	}

	c := &Client{
		conn:     conn,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:  10 * time.Second,
		waiting:  make(map[uint64]chan Message),
		handlers: make(map[string]host.Handler),
		ready:    make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, errors.New("B050").WithDetail("waiting for hello").Wrap(err)
	}
	hello, err := DecodeMessage(data)
	if err != nil || hello.Type != TypeHello || hello.Ref == "" {
		conn.Close()
		return nil, errors.New("B050").WithDetail("expected hello frame")
	}
	conn.SetReadDeadline(time.Time{})
	c.root = &Ref{id: hello.Ref}

	go c.readLoop()
	c.logger.Debug("connected to remote host", "url", url, "root", hello.Ref)
	return c, nil
}

// Root returns the remote root object.
func (c *Client) Root() host.Ref {
	return c.root
}

// Ready is signalled when queued signals are waiting for Dispatch.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// Done is closed when the connection is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close closes the connection and waits for the read loop to exit.
func (c *Client) Close() error {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

// Dispatch delivers queued signals to their handlers on the calling
// goroutine, in arrival order, and returns how many were delivered. Signals
// for subscriptions that have since been disconnected are dropped.
func (c *Client) Dispatch() int {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	n := 0
	for _, msg := range queue {
		c.mu.Lock()
		handler, ok := c.handlers[msg.Sub]
		c.mu.Unlock()
		if !ok {
			continue
		}
		handler(msg.Args...)
		n++
	}
	return n
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			c.logger.Warn("bad frame from remote host", "error", err)
			continue
		}

		switch msg.Type {
		case TypeResponse:
			c.mu.Lock()
			ch, ok := c.waiting[msg.ID]
			delete(c.waiting, msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case TypeSignal:
			c.mu.Lock()
			c.queue = append(c.queue, msg)
			c.mu.Unlock()
			select {
			case c.ready <- struct{}{}:
			default:
			}
		default:
			c.logger.Warn("unexpected frame type", "type", msg.Type)
		}
	}
}

// fail records the terminal error and releases every waiting request.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if !c.shutdown && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.err = err
	}
	for id, ch := range c.waiting {
		close(ch)
		delete(c.waiting, id)
	}
}

func (c *Client) request(req Message) (Message, error) {
	req.Type = TypeRequest
	ch := make(chan Message, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, errors.New("B050").WithKey(string(req.Op)).WithDetail("connection closed")
	}
	c.nextID++
	req.ID = c.nextID
	c.waiting[req.ID] = ch
	c.mu.Unlock()

	data, err := req.Encode()
	if err != nil {
		c.abandon(req.ID)
		return Message{}, errors.New("B050").WithKey(string(req.Op)).Wrap(err)
	}
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.abandon(req.ID)
		return Message{}, errors.New("B050").WithKey(string(req.Op)).Wrap(err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case resp, ok := <-ch:
		if !ok {
			return Message{}, errors.New("B050").WithKey(string(req.Op)).WithDetail("connection closed")
		}
		if resp.Error != "" {
			return resp, remoteError(resp)
		}
		return resp, nil
	case <-timer.C:
		c.abandon(req.ID)
		return Message{}, errors.New("B050").WithKey(string(req.Op)).WithDetail("request timed out")
	}
}

func (c *Client) abandon(id uint64) {
	c.mu.Lock()
	delete(c.waiting, id)
	c.mu.Unlock()
}

// remoteError rebuilds a server-side error, keeping its code so errors.Is
// matches the same sentinels as a local host would.
func remoteError(resp Message) error {
	code := resp.Code
	if code == "" {
		code = "B050"
	}
	e := errors.New(code)
	e.Message = strings.TrimPrefix(resp.Error, code+": ")
	return e
}

// Create implements host.Host.
func (c *Client) Create(className string) (host.Ref, error) {
	resp, err := c.request(Message{Op: OpCreate, Class: className})
	if err != nil {
		return nil, err
	}
	return &Ref{id: resp.Ref}, nil
}

// Set implements host.Host.
func (c *Client) Set(ref host.Ref, name string, value any) error {
	_, err := c.request(Message{Op: OpSet, Ref: ref.HostID(), Name: name, Value: value})
	return err
}

// Get implements host.Host. Values arrive as JSON types: numbers are
// float64.
func (c *Client) Get(ref host.Ref, name string) (any, error) {
	resp, err := c.request(Message{Op: OpGet, Ref: ref.HostID(), Name: name})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Destroy implements host.Host.
func (c *Client) Destroy(ref host.Ref) error {
	_, err := c.request(Message{Op: OpDestroy, Ref: ref.HostID()})
	return err
}

// Attach implements host.Host.
func (c *Client) Attach(parent, child host.Ref) error {
	_, err := c.request(Message{Op: OpAttach, Ref: child.HostID(), Parent: parent.HostID()})
	return err
}

// Subscribe implements host.Host.
func (c *Client) Subscribe(ref host.Ref, signal string, handler host.Handler) (host.Connection, error) {
	resp, err := c.request(Message{Op: OpSubscribe, Ref: ref.HostID(), Signal: signal})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.handlers[resp.Sub] = handler
	c.mu.Unlock()
	return &subscription{client: c, id: resp.Sub}, nil
}

type subscription struct {
	client *Client
	id     string
	once   sync.Once
}

// Disconnect implements host.Connection. The handler is removed locally at
// once; a failure to reach the server is logged.
func (s *subscription) Disconnect() {
	s.once.Do(func() {
		c := s.client
		c.mu.Lock()
		delete(c.handlers, s.id)
		c.mu.Unlock()
		if _, err := c.request(Message{Op: OpDisconnect, Sub: s.id}); err != nil {
			c.logger.Warn("remote disconnect failed", "sub", s.id, "error", err)
		}
	})
}
