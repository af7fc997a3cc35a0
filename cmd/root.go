package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hmans/todograph/internal/config"
	"github.com/hmans/todograph/internal/graph"
	"github.com/hmans/todograph/internal/logging"
	"github.com/hmans/todograph/internal/ui"
	"github.com/hmans/todograph/internal/upstream"
)

var (
	cfg    *config.Config
	logger *logrus.Logger

	configPath   string
	upstreamFlag string
	relationFlag string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "todograph",
	Short: "A GraphQL facade over the JSONPlaceholder users and todos API",
	Long: `todograph exposes the "users" and "todos" resources of a JSONPlaceholder-style
REST API as a GraphQL graph with two linked types, User and Todo.

Every field is resolved with a single upstream request. Nothing is cached,
batched or retried.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("upstream") {
			loaded.Upstream.BaseURL = upstreamFlag
		}
		if flags.Changed("relations") {
			loaded.Graph.Relations = relationFlag
		}
		if flags.Changed("log-level") {
			loaded.Log.Level = logLevelFlag
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		l, err := logging.New(loaded.Log)
		if err != nil {
			return err
		}

		cfg = loaded
		logger = l
		return nil
	},
}

// newSchema builds the executable schema from the loaded config.
func newSchema() (*graph.Schema, error) {
	timeout, err := cfg.UpstreamTimeout()
	if err != nil {
		return nil, err
	}
	routes, err := graph.NewRoutes(cfg.Graph.Relations)
	if err != nil {
		return nil, err
	}

	return graph.NewSchema(graph.Config{
		Client:         upstream.New(cfg.Upstream.BaseURL, upstream.WithTimeout(timeout)),
		Routes:         routes,
		Log:            logger,
		MaxParallelism: cfg.Graph.MaxParallelism,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./"+config.ConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&upstreamFlag, "upstream", "", "Upstream REST API base URL (default "+config.DefaultUpstream+")")
	rootCmd.PersistentFlags().StringVar(&relationFlag, "relations", "", "Relation join mode: foreign-key or legacy")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+err.Error()))
		os.Exit(1)
	}
}
