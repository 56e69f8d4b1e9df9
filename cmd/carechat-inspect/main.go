// carechat-inspect prints the persisted conversation blob from a DB path.
// Run it against a stopped server or a snapshot copy; Pebble holds an
// exclusive lock while the server is up.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"carechat/pkg/logger"
	"carechat/pkg/store"
)

func main() {
	var dbPath string
	var full bool
	flag.StringVar(&dbPath, "db", "", "carechat DB path (as passed to the server)")
	flag.BoolVar(&full, "full", false, "dump the raw blob instead of a summary")
	flag.Parse()
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}

	logger.InitWithLevel("error")

	p, err := store.Open(filepath.Join(dbPath, "store"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	if full {
		raw, ok := p.RawBlob()
		if !ok {
			fmt.Println("store is empty")
			return
		}
		var pretty json.RawMessage = raw
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			os.Stdout.Write(raw)
			fmt.Println()
			return
		}
		os.Stdout.Write(out)
		fmt.Println()
		return
	}

	cs := p.Load()
	if cs == nil {
		fmt.Println("store is empty")
		return
	}
	fmt.Printf("sessions: %d  current: %s\n", len(cs.Sessions), cs.CurrentSessionID)
	for _, s := range cs.Sessions {
		marker := " "
		if s.ID == cs.CurrentSessionID {
			marker = "*"
		}
		fmt.Printf("%s %s  %q  messages=%d  updated=%s\n", marker, s.ID, s.Title, len(cs.MessagesBySession[s.ID]), s.Timestamp)
	}
}
