package banner

import (
	"fmt"

	"carechat/pkg/config"
)

const banner = `
 ██████╗ █████╗ ██████╗ ███████╗ ██████╗██╗  ██╗ █████╗ ████████╗
██╔════╝██╔══██╗██╔══██╗██╔════╝██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██║     ███████║██████╔╝█████╗  ██║     ███████║███████║   ██║
██║     ██╔══██║██╔══██╗██╔══╝  ██║     ██╔══██║██╔══██║   ██║
╚██████╗██║  ██║██║  ██║███████╗╚██████╗██║  ██║██║  ██║   ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with the effective config and a short
// production readiness checklist.
func Print(cfg *config.Config, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", cfg.Addr())
	fmt.Printf("DB Path:   %s\n", cfg.Server.DBPath)
	fmt.Printf("Exchange:  %s\n", cfg.Exchange.Endpoint)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}

	fmt.Println("\n== Examples ===================================================")
	fmt.Println(`curl -X POST 'http://<host>:<port>/v1/exchange' -d '{"text": "I have a headache"}'`)
	fmt.Println(`curl 'http://<host>:<port>/v1/sessions'`)

	fmt.Println("\n== Production? ================================================")
	if n := len(cfg.Security.APIKeys); n > 0 {
		fmt.Printf("- API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- API keys: NONE (API is open; fine for local use only)")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if len(cfg.Security.CORS.AllowedOrigins) > 0 {
		fmt.Printf("- CORS origins: %d allowed\n", len(cfg.Security.CORS.AllowedOrigins))
	} else {
		fmt.Println("- CORS: no origins allowed (browser clients blocked)")
	}
	if cfg.Snapshot.Enabled {
		fmt.Printf("- Snapshots: enabled (cron=%s keep=%d)\n", cfg.Snapshot.Cron, cfg.Snapshot.Keep)
	} else {
		fmt.Println("- Snapshots: disabled")
	}

	fmt.Println("\n== Logs: ======================================================")
}
