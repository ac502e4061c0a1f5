package viz

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/edaniels/golog"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// Server streams marker updates to websocket viewers. Viewers connect to
// /markers and receive one JSON array per broadcast; a viewer that stops
// reading is dropped rather than allowed to stall the broadcaster.
type Server struct {
	logger   golog.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}

	listener                net.Listener
	httpServer              *http.Server
	activeBackgroundWorkers sync.WaitGroup
}

// NewServer builds a marker server bound to addr (host:port).
func NewServer(addr string, logger golog.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}
	s := &Server{
		logger: logger,
		conns:  map[*websocket.Conn]struct{}{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		listener: listener,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/markers", s.handleMarkers)
	s.httpServer = &http.Server{Handler: mux}
	return s, nil
}

// Start serves viewer connections until Close.
func (s *Server) Start() {
	s.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("marker server failed", "error", err)
		}
	}, s.activeBackgroundWorkers.Done)
	s.logger.Infow("marker server listening", "addr", s.listener.Addr().String())
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debugw("viewer upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	// drain control frames until the viewer goes away
	s.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		s.drop(conn)
	}, s.activeBackgroundWorkers.Done)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	utils.UncheckedErrorFunc(conn.Close)
}

// Broadcast sends the marker set to every attached viewer.
func (s *Server) Broadcast(markers []Marker) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(markers); err != nil {
			s.logger.Debugw("dropping stalled viewer", "error", err)
			s.drop(conn)
		}
	}
}

// Close stops serving and disconnects every viewer.
func (s *Server) Close(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.mu.Lock()
	for conn := range s.conns {
		err = multierr.Combine(err, conn.Close())
	}
	s.conns = map[*websocket.Conn]struct{}{}
	s.mu.Unlock()
	s.activeBackgroundWorkers.Wait()
	return err
}
