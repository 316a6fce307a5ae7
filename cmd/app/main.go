package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wikigraph/internal"
	pkgconfig "github.com/starford/wikigraph/pkg/config"
)

// loadConfig reads the config file named by --config, falling back to
// defaults when it does not exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		internal.NewLogger(cfg).Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "wikigraph",
		Usage:  "Link graph analysis for DokuWiki page trees",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the REST API and live events, rebuilding on file changes",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve graph tools over MCP stdio",
				Action: serveMCP,
			},
			rankCommand(),
			{
				Name:   "orphans",
				Usage:  "List pages no other page links to",
				Action: withSnapshot(printOrphans),
			},
			{
				Name:   "wanted",
				Usage:  "List link targets that have no page",
				Action: withSnapshot(printWanted),
			},
			{
				Name:      "links",
				Usage:     "List the pages a page links to",
				ArgsUsage: "<page>",
				Action:    withSnapshot(printLinks),
			},
			{
				Name:      "backlinks",
				Usage:     "List the pages linking to a page",
				ArgsUsage: "<page>",
				Action:    withSnapshot(printBacklinks),
			},
			resolveCommand(),
			mediaCommand(),
			{
				Name:   "tree",
				Usage:  "Print the namespace outline",
				Action: withSnapshot(printTree),
			},
			{
				Name:   "empty",
				Usage:  "List namespaces whose directory holds no files",
				Action: withSnapshot(printEmpty),
			},
			{
				Name:   "stats",
				Usage:  "Print graph statistics",
				Action: withSnapshot(printStats),
			},
			{
				Name:   "clusters",
				Usage:  "List weakly connected page groups, largest first",
				Action: withSnapshot(printClusters),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
