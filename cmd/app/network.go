package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/starford/gebo/internal/notestore"
	"github.com/urfave/cli/v3"
)

func networkCommand() *cli.Command {
	return &cli.Command{
		Name:  "network",
		Usage: "Analyze the link network",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Print link network statistics",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only analyze notes in this category"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 10, Usage: "Number of top notes to rank, 0 for totals only"},
				},
				Action: networkStats,
			},
			{
				Name:  "standalone",
				Usage: "List notes with no links in either direction",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only analyze notes in this category"},
				},
				Action: networkStandalone,
			},
			{
				Name:      "path",
				Usage:     "Find the shortest link path from SOURCE to TARGET",
				ArgsUsage: "SOURCE TARGET",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the source note"},
					&cli.StringFlag{Name: "target-category", Aliases: []string{"tc"}, Usage: "Category of the target note"},
					&cli.IntFlag{Name: "max-depth", Aliases: []string{"d"}, Value: 5, Usage: "Maximum path length, 0 for unbounded"},
				},
				Action: networkPath,
			},
		},
	}
}

func networkStats(ctx context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	st, err := env.Links.Stats(ctx, notestore.Scope{Category: cmd.String("category")}, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	fmt.Printf("Notes:            %d\n", st.TotalNotes)
	fmt.Printf("Linked notes:     %d\n", st.NotesWithLinks)
	fmt.Printf("  with outgoing:  %d\n", st.NotesWithOutgoing)
	fmt.Printf("  with incoming:  %d\n", st.NotesWithIncoming)
	fmt.Printf("Standalone notes: %d\n", st.StandaloneNotes)
	fmt.Printf("Total links:      %d\n", st.TotalLinks)
	fmt.Printf("Avg links/note:   %.2f\n", st.AvgLinksPerNote)
	fmt.Printf("Dangling links:   %d\n", st.DanglingLinks)

	if len(st.TopNotes) > 0 {
		fmt.Println("\nMost linked:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NOTE\tOUT\tIN\tTOTAL")
		for _, r := range st.TopNotes {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", r.Identity, r.Outgoing, r.Incoming, r.Total())
		}
		return w.Flush()
	}
	return nil
}

func networkStandalone(ctx context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	notes, err := env.Links.FindStandalone(ctx, notestore.Scope{Category: cmd.String("category")})
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Println("No standalone notes.")
		return nil
	}
	fmt.Printf("%d standalone notes:\n", len(notes))
	for _, n := range notes {
		fmt.Printf("  %s\n", n.Identity())
	}
	return nil
}

func networkPath(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 2 {
		return errors.New("usage: gebo network path SOURCE TARGET")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	source := identityArg(cmd.Args().Get(0), cmd.String("category"))
	target := identityArg(cmd.Args().Get(1), cmd.String("target-category"))

	res, err := env.Links.ShortestPath(ctx, source, target, notestore.Scope{}, int(cmd.Int("max-depth")))
	if err != nil {
		return err
	}
	if !res.Found {
		fmt.Println("No path found.")
		return nil
	}
	parts := make([]string, len(res.Path))
	for i, id := range res.Path {
		parts[i] = id.String()
	}
	fmt.Printf("%s (%d links)\n", strings.Join(parts, " -> "), res.Length)
	return nil
}
