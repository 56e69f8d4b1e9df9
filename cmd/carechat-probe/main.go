// carechat-probe is a lean liveness sidecar. It serves /healthz over
// fasthttp and, when a target is configured, forwards the main server's
// /readyz verdict so orchestrators can point one check at one port.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"carechat/pkg/httpx"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address for the probe")
	target := flag.String("target", "", "base URL of the carechat server, e.g. http://127.0.0.1:8080")
	timeout := flag.Duration("timeout", 2*time.Second, "readiness check timeout")
	ver := flag.String("version", "dev", "version string to return")
	flag.Parse()

	client := &fasthttp.Client{ReadTimeout: *timeout, WriteTimeout: *timeout}

	handler := func(w httpx.ResponseWriter, r *httpx.Request) {
		switch r.Path {
		case "/health", "/healthz":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(fmt.Sprintf(`{"status":"ok","version":"%s"}`, *ver)))
		case "/readyz":
			w.Header().Set("Content-Type", "application/json")
			if *target == "" {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"status":"ok","target":"unconfigured"}`))
				return
			}
			status, body, err := client.GetTimeout(nil, *target+"/readyz", *timeout)
			if err != nil || status != fasthttp.StatusOK {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"not ready"}`))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	fmt.Printf("carechat-probe listening on %s\n", *addr)
	srv := &fasthttp.Server{
		Handler:            httpx.FastHTTPAdapter(handler),
		Name:               "carechat-probe",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("probe server exit: %v\n", err)
	}
}
