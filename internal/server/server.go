// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/memory"
)

// SessionHeader selects the conversation a request belongs to.
const SessionHeader = "X-Session-ID"

// maxBodyBytes caps request bodies for both routes.
const maxBodyBytes = 1 << 20

// Responder runs one user turn against a conversation.
type Responder interface {
	Respond(ctx context.Context, conv memory.Conversation, utterance string) (string, memory.Conversation, error)
}

// DocumentIndexer stores documents for retrieval.
type DocumentIndexer interface {
	AddDocument(ctx context.Context, content string) (string, error)
}

type Options struct {
	Mode   string
	Runner Responder
	Store  memory.Store
	// Documents enables POST /document when non-nil.
	Documents DocumentIndexer
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

type Server struct {
	mode     string
	runner   Responder
	store    memory.Store
	docs     DocumentIndexer
	logger   zerolog.Logger
	sessions sessionLocks
	http     *http.Server
}

func New(opts Options) *Server {
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	store := opts.Store
	if store == nil {
		store = memory.NewMemoryStore()
	}
	s := &Server{
		mode:     opts.Mode,
		runner:   opts.Runner,
		store:    store,
		docs:     opts.Documents,
		logger:   logger,
		sessions: sessionLocks{m: make(map[string]*sessionLock)},
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc("POST /chat", s.handleChat)
	if s.docs != nil {
		router.HandleFunc("POST /document", s.handleDocument)
	}
	router.HandleFunc("GET /health", s.handleHealth)

	var h http.Handler = router
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("http request")
	})(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-ID")(h)
	h = hlog.NewHandler(s.logger)(h)
	return h
}

// Start listens on addr and blocks until Shutdown; it then returns nil.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info().Str("addr", ln.Addr().String()).Str("mode", s.mode).Msg("server: listening")
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("server: shutting down")
	return s.http.Shutdown(ctx)
}
