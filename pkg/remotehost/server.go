package remotehost

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/blueprint/pkg/errors"
	"github.com/vango-dev/blueprint/pkg/host"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin overrides the WebSocket origin check. The default allows
// all origins.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithWriteTimeout sets the per-message write deadline.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.writeTimeout = d
	}
}

// Server exposes a host.Host over WebSocket. Objects are shared by all
// connections; subscriptions belong to the connection that made them and
// are disconnected when it closes.
type Server struct {
	host         host.Host
	root         host.Ref
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	mu       sync.Mutex
	refs     map[string]host.Ref
	parents  map[string]string
	children map[string]map[string]struct{}
	sessions map[*session]struct{}
}

// NewServer creates a server for h. root is announced to clients as the
// parent for top-level mounts.
func NewServer(h host.Host, root host.Ref, opts ...ServerOption) *Server {
	s := &Server{
		host:   h,
		root:   root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		writeTimeout: 10 * time.Second,
		refs:         map[string]host.Ref{root.HostID(): root},
		parents:      make(map[string]string),
		children:     make(map[string]map[string]struct{}),
		sessions:     make(map[*session]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type session struct {
	server *Server
	conn   *websocket.Conn

	writeMu sync.Mutex
	subs    map[string]host.Connection
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &session{server: s, conn: conn, subs: make(map[string]host.Connection)}
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("remote client connected", "remote", r.RemoteAddr)

	defer func() {
		for id, c := range sess.subs {
			c.Disconnect()
			delete(sess.subs, id)
		}
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		conn.Close()
		s.logger.Debug("remote client disconnected", "remote", r.RemoteAddr)
	}()

	if err := sess.write(Message{Type: TypeHello, Ref: s.root.HostID()}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			s.logger.Warn("bad frame", "error", err)
			resp := Message{Type: TypeResponse}
			setError(&resp, errors.New("B050").Wrap(err))
			if sess.write(resp) != nil {
				return
			}
			continue
		}
		if msg.Type != TypeRequest {
			s.logger.Warn("unexpected frame type", "type", msg.Type)
			continue
		}

		if err := sess.write(sess.handle(msg)); err != nil {
			s.logger.Error("write error", "error", err)
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close closes all client connections.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.conn.Close()
	}
}

func (s *Server) lookup(id string) (host.Ref, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.refs[id]
	if !ok {
		return nil, errors.New("B043").WithKey(id)
	}
	return ref, nil
}

func (s *Server) remember(ref host.Ref) {
	s.mu.Lock()
	s.refs[ref.HostID()] = ref
	s.mu.Unlock()
}

// Objects returns the number of host objects the server can address,
// including the root.
func (s *Server) Objects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// attached records child under parent, moving it from any previous parent.
func (s *Server) attached(parent, child string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.parents[child]; ok {
		delete(s.children[old], child)
	}
	s.parents[child] = parent
	kids := s.children[parent]
	if kids == nil {
		kids = make(map[string]struct{})
		s.children[parent] = kids
	}
	kids[child] = struct{}{}
}

// forget drops id and its attached descendants, which a host destroys
// along with it.
func (s *Server) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.parents[id]; ok {
		delete(s.children[old], id)
	}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for kid := range s.children[cur] {
			stack = append(stack, kid)
		}
		delete(s.children, cur)
		delete(s.parents, cur)
		delete(s.refs, cur)
	}
}

// write sends one frame. Signal pushes from host handlers and responses
// share the connection, so writes are serialized.
func (sess *session) write(msg Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()
	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.writeTimeout))
	return sess.conn.WriteMessage(websocket.TextMessage, data)
}

// handle applies one request to the host and builds its response.
func (sess *session) handle(req Message) Message {
	s := sess.server
	resp := Message{Type: TypeResponse, ID: req.ID, Op: req.Op}

	var err error
	switch req.Op {
	case OpCreate:
		var ref host.Ref
		if ref, err = s.host.Create(req.Class); err == nil {
			s.remember(ref)
			resp.Ref = ref.HostID()
		}

	case OpSet:
		var ref host.Ref
		if ref, err = s.lookup(req.Ref); err == nil {
			err = s.host.Set(ref, req.Name, req.Value)
		}

	case OpGet:
		var ref host.Ref
		if ref, err = s.lookup(req.Ref); err == nil {
			resp.Value, err = s.host.Get(ref, req.Name)
		}

	case OpDestroy:
		var ref host.Ref
		if ref, err = s.lookup(req.Ref); err == nil {
			if err = s.host.Destroy(ref); err == nil {
				s.forget(req.Ref)
			}
		}

	case OpAttach:
		var parent, child host.Ref
		if parent, err = s.lookup(req.Parent); err == nil {
			if child, err = s.lookup(req.Ref); err == nil {
				if err = s.host.Attach(parent, child); err == nil {
					s.attached(req.Parent, req.Ref)
				}
			}
		}

	case OpSubscribe:
		var ref host.Ref
		if ref, err = s.lookup(req.Ref); err == nil {
			sub := uuid.NewString()
			var conn host.Connection
			conn, err = s.host.Subscribe(ref, req.Signal, func(args ...any) {
				if werr := sess.write(Message{Type: TypeSignal, Sub: sub, Signal: req.Signal, Args: args}); werr != nil {
					s.logger.Warn("signal push failed", "signal", req.Signal, "error", werr)
				}
			})
			if err == nil {
				sess.subs[sub] = conn
				resp.Sub = sub
			}
		}

	case OpDisconnect:
		if conn, ok := sess.subs[req.Sub]; ok {
			conn.Disconnect()
			delete(sess.subs, req.Sub)
		}

	default:
		err = errors.New("B050").WithKey(string(req.Op)).WithDetail("unknown operation")
	}

	if err != nil {
		setError(&resp, err)
		s.logger.Debug("remote request failed", "op", req.Op, "error", err)
	}
	return resp
}

func setError(resp *Message, err error) {
	resp.Error = err.Error()
	resp.Code = errors.CodeOf(err)
}
