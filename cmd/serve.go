package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hmans/todograph/internal/server"
)

var (
	servePort       int
	servePath       string
	servePlayground bool
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the GraphQL server",
	Long: `Start an HTTP server that serves the GraphQL API.

The server exposes:
  - GraphQL endpoint at /graphql (POST)
  - GraphQL Playground at /graphql (GET) for interactive queries
  - Health check at /health

Examples:
  # Start server on default port 8000
  todograph serve

  # Start server on a custom port, joining relations the original way
  todograph serve --port 3000 --relations legacy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("port") {
			cfg.Server.Port = servePort
		}
		if flags.Changed("path") {
			cfg.Server.Path = servePath
		}
		if flags.Changed("playground") {
			cfg.Server.Playground = &servePlayground
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return runServer()
	},
}

func runServer() error {
	gin.SetMode(gin.ReleaseMode)

	schema, err := newSchema()
	if err != nil {
		return err
	}

	srv := server.New(schema, server.Options{
		Path:        cfg.Server.Path,
		CORSOrigins: cfg.Server.CORSOrigins,
		Playground:  cfg.PlaygroundEnabled(),
	}, logger)

	// Set up signal handling with context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting server at http://localhost:%d%s\n", cfg.Server.Port, cfg.Server.Path)
	fmt.Printf("Upstream: %s (relations: %s)\n", cfg.Upstream.BaseURL, cfg.Graph.Relations)

	return srv.ListenAndServe(ctx, cfg.Addr())
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to listen on")
	serveCmd.Flags().StringVar(&servePath, "path", "/graphql", "Path to serve GraphQL on")
	serveCmd.Flags().BoolVar(&servePlayground, "playground", true, "Serve the GraphQL Playground on GET requests")
	rootCmd.AddCommand(serveCmd)
}
