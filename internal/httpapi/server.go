package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dreamware/kronos/internal/storage"
)

// Server wires storage.Storage behind a small set of JSON endpoints. It
// holds no state of its own beyond the core it was built from.
type Server struct {
	core storage.Storage
	log  zerolog.Logger
	mux  *http.ServeMux
}

// NewServer builds the facade's routes. log defaults to zerolog.Nop() if
// the zero value is passed.
func NewServer(core storage.Storage, log zerolog.Logger) *Server {
	s := &Server{core: core, log: log, mux: http.NewServeMux()}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/namespaces/", s.handleNamespaceRoute)

	return s
}

// Handler returns the facade's http.Handler, for use by http.Server or a
// test httptest.Server.
func (s *Server) Handler() http.Handler { return s.mux }

// NewHTTPServer wraps Handler in an *http.Server with the same
// slowloris-resistant timeout the teacher's node service sets.
func NewHTTPServer(addr string, core storage.Storage, log zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewServer(core, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.core.IsAlive() {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
