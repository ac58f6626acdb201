package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	uuid "github.com/satori/go.uuid"

	"github.com/quantonganh/waitlist"
)

const (
	shutdownTimeout = 1 * time.Second
)

// Server represents HTTP server
type Server struct {
	ln      net.Listener
	server  *http.Server
	router  *mux.Router
	handler http.Handler

	Addr           string
	AllowedOrigins []string

	// AdminPassword is the shared secret for the admin listing. Empty denies every request.
	AdminPassword string
	// PerClientRateLimit keys rate limit windows by remote address instead of one shared bucket.
	PerClientRateLimit bool

	// hmacKey keys the digests compared when checking the admin password
	hmacKey string

	SignupService       waitlist.SignupService
	SubscriptionService waitlist.SubscriptionService
}

// NewServer create new HTTP server
func NewServer() (*Server, error) {
	s := &Server{
		server:  &http.Server{},
		router:  mux.NewRouter().StrictSlash(true),
		hmacKey: uuid.NewV4().String(),
	}

	zlog := zerolog.New(os.Stdout).With().
		Timestamp().
		Logger()
	s.router.Use(hlog.NewHandler(zlog))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	s.router.Use(hlog.RemoteAddrHandler("ip"))
	s.router.Use(hlog.UserAgentHandler("user_agent"))
	s.router.Use(hlog.RefererHandler("referer"))
	s.router.Use(hlog.RequestIDHandler("req_id", "Request-Id"))

	sentryHandler := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
	})
	s.router.Use(sentryHandler.Handle)

	s.server.Handler = http.HandlerFunc(s.serveHTTP)

	s.router.HandleFunc("/", s.Error(s.indexHandler)).Methods(http.MethodGet)
	s.router.HandleFunc("/admin", s.Error(s.adminPageHandler)).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.healthCheckHandler)
	s.router.HandleFunc("/subscriptions", s.Error(s.subscriptionsHandler)).Methods(http.MethodPost)

	apiRouter := s.router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/emails", s.Error(s.emailsHandler)).Methods(http.MethodGet)
	apiRouter.HandleFunc("/emails", s.methodNotAllowedHandler).Methods(http.MethodPost)

	return s, nil
}

// Handler returns the router wrapped with panic recovery and, when origins
// are configured, CORS
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
			handlers.AllowedHeaders([]string{"Content-Type", adminPasswordHeader}),
		)(h)
	}
	return handlers.RecoveryHandler()(h)
}

// Port returns server port
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the local URL the server listens on
func (s *Server) URL() string {
	if port := s.Port(); port != 80 {
		return fmt.Sprintf("http://localhost:%d", port)
	}
	return "http://localhost"
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Open opens a connection to HTTP server
func (s *Server) Open() (err error) {
	s.ln, err = net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Errorf("failed to listen to port %s: %v", s.Addr, err)
	}

	s.handler = s.Handler()

	go func() {
		_ = s.server.Serve(s.ln)
	}()

	return nil
}

// Close shutdowns HTTP server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
