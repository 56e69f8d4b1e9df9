package app

import (
	"context"
	"net/http"

	"carechat/pkg/api"
	"carechat/pkg/auth"
	"carechat/pkg/banner"
	"carechat/pkg/telemetry"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.version
	if a.commit != "none" && a.commit != "" {
		verStr += " (" + a.commit + ")"
	}
	if a.buildDate != "unknown" && a.buildDate != "" {
		verStr += " @ " + a.buildDate
	}
	banner.Print(a.cfg, verStr)
}

// startHTTP builds the handler chain, starts the HTTP server in a goroutine
// and returns a channel carrying any server error.
func (a *App) startHTTP(_ context.Context) <-chan error {
	router := api.NewRouter(api.Deps{
		Registry:         a.reg,
		Exchanger:        a.ex,
		Blob:             a.blob,
		MaxQuestionBytes: a.cfg.Limits.MaxQuestionBytes.Int64(),
		Version:          a.version,
	})

	secCfg := auth.SecConfig{
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		RPS:            a.cfg.Security.RateLimit.RPS,
		Burst:          a.cfg.Security.RateLimit.Burst,
		APIKeys:        a.cfg.KeySet(),
	}

	var handler http.Handler = router
	handler = auth.Middleware(secCfg)(handler)
	handler = telemetry.Middleware(handler)

	a.srv = &http.Server{Addr: a.cfg.Addr(), Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
