package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/wikigraph/internal"
	"github.com/starford/wikigraph/internal/graphservice"
)

type reportFunc func(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error

// withSnapshot loads the config, builds the graph once and runs fn against it.
func withSnapshot(fn reportFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := internal.NewLogger(cfg)
		svc, err := internal.NewService(cfg, logger)
		if err != nil {
			return err
		}
		if _, err := svc.Rebuild(ctx); err != nil {
			return err
		}
		return fn(ctx, cmd, svc, os.Stdout)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(out io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	return nil
}

func singleArg(cmd *cli.Command, what string) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("exactly one %s argument is required", what)
	}
	return cmd.Args().First(), nil
}

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "Rank pages by importance",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "algorithm",
				Aliases: []string{"a"},
				Usage:   "pagerank, authority, hub or indegree",
				Value:   graphservice.RankPageRank,
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results, 0 for all",
				Value:   20,
			},
		},
		Action: withSnapshot(func(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error {
			scores, err := svc.Rank(ctx, cmd.String("algorithm"), int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, s := range scores {
				if _, err := fmt.Fprintf(out, "%.6f\t%s\n", s.Score, s.Path); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Explain how a raw link body resolves",
		ArgsUsage: "<link>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Page the link is written on",
			},
		},
		Action: withSnapshot(func(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error {
			link, err := singleArg(cmd, "link")
			if err != nil {
				return err
			}
			res, err := svc.Resolve(ctx, link, cmd.String("from"))
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
}

func mediaCommand() *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "Audit embedded media against the media directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Media namespace to check for remaining references",
			},
		},
		Action: withSnapshot(func(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error {
			rep, err := svc.MediaAudit(ctx, cmd.String("prefix"))
			if err != nil {
				return err
			}
			return printJSON(out, rep)
		}),
	}
}

func printOrphans(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	orphans, err := svc.Orphans(ctx)
	if err != nil {
		return err
	}
	return printLines(out, orphans)
}

func printWanted(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	wanted, err := svc.Wanted(ctx)
	if err != nil {
		return err
	}
	for _, w := range wanted {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", w.Path, strings.Join(w.Referrers, " ")); err != nil {
			return err
		}
	}
	return nil
}

func printLinks(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error {
	p, err := singleArg(cmd, "page")
	if err != nil {
		return err
	}
	links, err := svc.Links(ctx, p)
	if err != nil {
		return err
	}
	return printLines(out, links)
}

func printBacklinks(ctx context.Context, cmd *cli.Command, svc *graphservice.Service, out io.Writer) error {
	p, err := singleArg(cmd, "page")
	if err != nil {
		return err
	}
	bl, err := svc.Backlinks(ctx, p)
	if err != nil {
		return err
	}
	return printLines(out, bl)
}

func printTree(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	tree, err := svc.Tree(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, tree)
	return err
}

func printEmpty(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	empty, err := svc.EmptyNamespaces(ctx)
	if err != nil {
		return err
	}
	return printLines(out, empty)
}

func printStats(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	st, err := svc.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, st)
}

func printClusters(ctx context.Context, _ *cli.Command, svc *graphservice.Service, out io.Writer) error {
	clusters, err := svc.Clusters(ctx)
	if err != nil {
		return err
	}
	for _, c := range clusters {
		if _, err := fmt.Fprintln(out, strings.Join(c, " ")); err != nil {
			return err
		}
	}
	return nil
}
