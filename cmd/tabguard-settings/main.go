// Package main provides tabguard-settings, a terminal editor for per-site tab limits.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/entrhq/tabguard/pkg/config"
	"github.com/entrhq/tabguard/pkg/settings"
)

const version = "0.1.0"

func main() {
	storagePath := flag.String("storage", "", "Path to the shared limits storage file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tabguard-settings v%s\n", version)
		return
	}

	path, err := config.ExpandHome(*storagePath)
	if err != nil {
		log.Fatalf("Failed to resolve storage path: %v", err)
	}
	store, err := config.NewFileStore(path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	p := tea.NewProgram(settings.New(store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
