// Package api assembles the HTTP router: the /v1 conversation surface plus
// the operational endpoints (health probes, metrics, docs).
package api

import (
	"net/http"

	"carechat/pkg/api/handlers"
	"carechat/pkg/registry"
	"carechat/pkg/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps carries everything the router needs. Version is reported by /readyz
// so ops can verify which binary is live.
type Deps struct {
	Registry         *registry.Registry
	Exchanger        handlers.Exchanger
	Blob             store.Blob
	MaxQuestionBytes int64
	Version          string
	DocsDir          string
}

// NewRouter builds the full route table.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyz(d)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	docsDir := d.DocsDir
	if docsDir == "" {
		docsDir = "./docs"
	}
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Handle("/openapi.yaml", http.FileServer(http.Dir(docsDir)))

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterSessions(v1, d.Registry)
	handlers.RegisterExchange(v1, d.Registry, d.Exchanger, d.MaxQuestionBytes)
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// readyz reports not-ready while the store is unavailable. A registry running
// on the in-memory fallback still serves, so only a nil blob is fatal here.
func readyz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if rd, ok := d.Blob.(interface{ Ready() bool }); ok && !rd.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"not ready"}`))
			return
		}
		ver := d.Version
		if ver == "" {
			ver = "dev"
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + ver + `"}`))
	}
}
