// discovery-sim: problem-discovery training simulator as an MCP server
//
// An AI host drives a learner through recruitment, interviews with
// synthetic personas, synthesis and scoring, all over MCP tools.
//
// Usage:
//
//	discovery-sim serve [--config path]   # Start MCP server (stdio transport)
//	discovery-sim version                 # Print the version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/discovery-sim/internal/config"
	"github.com/HendryAvila/discovery-sim/internal/logging"
	simserver "github.com/HendryAvila/discovery-sim/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("discovery-sim v%s\n", simserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default: $"+config.EnvConfig+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	s, cleanup, err := simserver.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	stdio := server.NewStdioServer(s)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `discovery-sim v%s: problem-discovery training simulator (MCP server)

Usage:
  discovery-sim serve [--config path]   Start the MCP server (stdio transport)
  discovery-sim version                 Print the version

Environment:
  %-26s YAML config file
  %-26s base seed for unseeded sessions
  %-26s debug | info | warn | error
  %-26s prod | dev
  %-26s directory for journal.db (default: in memory)
  %-26s scenario YAML (default: embedded gym owners)

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "discovery-sim": {
        "command": "discovery-sim",
        "args": ["serve"]
      }
    }
  }
`, simserver.Version,
		config.EnvConfig, config.EnvSeed, config.EnvLogLevel,
		config.EnvLogMode, config.EnvJournalDir, config.EnvScenario)
}
