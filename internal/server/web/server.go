// Package web accepts client connections. It runs the HTTP listener,
// upgrades /ws requests to WebSocket, performs the one-shot handshake
// against the directory, and hands authenticated connections to a session.
// Each accepted connection lives in its own goroutine, so one slow client
// never blocks acceptance; the number of concurrent sessions is unbounded.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/dmitrijs2005/chirp/internal/common"
	"github.com/dmitrijs2005/chirp/internal/logging"
	"github.com/dmitrijs2005/chirp/internal/protocol"
	"github.com/dmitrijs2005/chirp/internal/server/config"
	"github.com/dmitrijs2005/chirp/internal/server/directory"
	"github.com/dmitrijs2005/chirp/internal/server/feed"
	"github.com/dmitrijs2005/chirp/internal/server/session"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	cfg      *config.Config
	dir      *directory.Directory
	engine   *feed.Engine
	ids      *directory.IDAllocator
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, dir *directory.Directory, engine *feed.Engine, ids *directory.IDAllocator, l logging.Logger) *Server {
	return &Server{
		cfg:    cfg,
		dir:    dir,
		engine: engine,
		ids:    ids,
		logger: l.With("module", "web_server"),
	}
}

// Handler returns the routed HTTP handler. Split out from Run so tests can
// mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ws", s.handleSession)
	router.GET("/healthz", s.handleHealthz)
	return router
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.cfg.EndpointAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping server...")
		// Close instead of Shutdown: sessions block on reads for as long
		// as the peer stays silent, so draining would never finish.
		_ = srv.Close()
	}()

	s.logger.Info(ctx, "Starting server", "address", s.cfg.EndpointAddr)

	if err := srv.Serve(listen); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleSession runs for the whole lifetime of one client connection. The
// handler goroutine is the session's goroutine.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(ctx, "upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	ws.SetReadLimit(s.cfg.ReadLimit)

	conn := protocol.NewWSConn(ws, s.cfg.WriteTimeout)
	defer conn.Close()

	account, err := s.handshake(conn)
	if err != nil {
		// no structured error to the client: close and move on
		s.logger.Warn(ctx, "handshake rejected", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.logger.Info(ctx, "connection established", "remote", r.RemoteAddr, "user", account.UserID)
	session.New(conn, s.dir, s.engine, s.ids, account, s.logger).Run(ctx)
}

// handshake reads exactly one frame, which must be a Login. An unknown user
// id provisions a fresh account and login; a known one must present the
// stored password. No directory mutation happens on a failed handshake.
func (s *Server) handshake(conn protocol.Conn) (*directory.Account, error) {
	env, err := conn.Read()
	if err != nil {
		return nil, err
	}
	if env.Type != protocol.TypeLogin {
		return nil, common.ErrBadHandshake
	}

	var msg protocol.Login
	if err := env.DecodePayload(&msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, common.ErrBadHandshake
	}

	if account, ok := s.dir.FindAccount(msg.UserID); ok {
		login, ok := s.dir.FindLogin(msg.UserID)
		if !ok || !login.Verify(msg.Password) {
			return nil, common.ErrWrongPassword
		}
		return account, nil
	}

	login, err := directory.NewLogin(msg.UserID, msg.Password)
	if err != nil {
		return nil, err
	}
	account := directory.NewAccount(msg.UserID, msg.DisplayName)
	s.dir.UpsertAccount(account)
	s.dir.UpsertLogin(login)
	return account, nil
}
