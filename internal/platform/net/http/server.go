package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/alexmarder/hloc/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	mw "github.com/go-chi/chi/v5/middleware"
)

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr string
	log  logger.Logger
	mux  *chi.Mux
	srv  *stdhttp.Server
	ln   net.Listener
}

// NewServer builds a server with request ids, panic recovery and access logging.
// opts receive the *chi.Mux so callers can mount routes/mw
func NewServer(addr string, log logger.Logger, opts ...func(*chi.Mux)) *Server {
	if addr == "" {
		addr = ":4000"
	}
	log = logger.Named(log, "http")
	m := chi.NewRouter()
	m.Use(mw.RequestID, mw.Recoverer, AccessLog(log, time.Second))
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr: addr,
		log:  log,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the configured address, or the bound one once Listen succeeded
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Listen binds the address without serving, so ":0" resolves before Run
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Run serves until ctx ends, then shuts down with a short grace period
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.log.Info().Str("addr", s.Addr()).Msg("http listening")

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.srv.Shutdown(shutCtx)
		<-errCh
		return err
	}
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
