package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
	"github.com/urfave/cli/v3"
)

func linkCommand() *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Manage the links between notes",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Link SOURCE to TARGET",
				ArgsUsage: "SOURCE TARGET",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "bidirectional", Aliases: []string{"b"}, Usage: "Also link TARGET back to SOURCE"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the source note"},
					&cli.StringFlag{Name: "target-category", Aliases: []string{"tc"}, Usage: "Category of the target note"},
				},
				Action: linkAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove the link from SOURCE to TARGET",
				ArgsUsage: "SOURCE TARGET",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "bidirectional", Aliases: []string{"b"}, Usage: "Also remove the link from TARGET to SOURCE"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the source note"},
					&cli.StringFlag{Name: "target-category", Aliases: []string{"tc"}, Usage: "Category of the target note"},
				},
				Action: linkRemove,
			},
			{
				Name:      "list",
				Usage:     "List a note's outgoing links",
				ArgsUsage: "NOTE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the note"},
					&cli.BoolFlag{Name: "backlinks", Aliases: []string{"b"}, Usage: "Show notes linking to this note instead"},
				},
				Action: linkList,
			},
			{
				Name:  "orphaned",
				Usage: "List linked_notes entries whose target does not exist",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only scan notes in this category"},
				},
				Action: linkOrphaned,
			},
			{
				Name:  "prune",
				Usage: "Remove every orphaned linked_notes entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only prune notes in this category"},
				},
				Action: linkPrune,
			},
			{
				Name:      "show",
				Usage:     "Show a note with its outgoing links and backlinks",
				ArgsUsage: "NOTE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the note"},
				},
				Action: linkShow,
			},
		},
	}
}

func linkAdd(ctx context.Context, cmd *cli.Command) error {
	return linkMutation(ctx, cmd, "usage: gebo link add SOURCE TARGET", (*linkgraph.Service).AddLink)
}

func linkRemove(ctx context.Context, cmd *cli.Command) error {
	return linkMutation(ctx, cmd, "usage: gebo link remove SOURCE TARGET", (*linkgraph.Service).RemoveLink)
}

// linkMutation runs AddLink or RemoveLink and prints the per-direction
// outcomes. Directions that committed are printed even when the call
// fails, so a partial bidirectional write is visible.
func linkMutation(ctx context.Context, cmd *cli.Command, usage string,
	op func(*linkgraph.Service, context.Context, models.Identity, models.Identity, bool) (*linkgraph.LinkResult, error),
) error {
	if cmd.Args().Len() != 2 {
		return errors.New(usage)
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	source := identityArg(cmd.Args().Get(0), cmd.String("category"))
	target := identityArg(cmd.Args().Get(1), cmd.String("target-category"))

	res, opErr := op(env.Links, ctx, source, target, cmd.Bool("bidirectional"))
	if res != nil {
		for _, d := range res.Directions {
			fmt.Printf("%s: %s -> %s\n", d.Status, d.Source, d.Target)
		}
	}
	return opErr
}

func linkList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gebo link list NOTE")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	backlinks := cmd.Bool("backlinks")
	links, err := env.Links.ListLinks(ctx, identityArg(cmd.Args().First(), cmd.String("category")), backlinks)
	if err != nil {
		return err
	}

	id := links.Note.Identity()
	if backlinks {
		if len(links.Incoming) == 0 {
			fmt.Printf("No notes link to %s.\n", id)
			return nil
		}
		fmt.Printf("Notes linking to %s:\n", id)
		for _, n := range links.Incoming {
			fmt.Printf("  %s\n", n.Identity())
		}
		return nil
	}

	if len(links.Outgoing) == 0 {
		fmt.Printf("%s has no outgoing links.\n", id)
		return nil
	}
	fmt.Printf("Links from %s:\n", id)
	printOutgoing(links.Outgoing)
	return nil
}

func printOutgoing(outgoing []linkgraph.LinkedNote) {
	for _, ln := range outgoing {
		if ln.Dangling {
			fmt.Printf("  %s (dangling)\n", ln.Entry)
		} else {
			fmt.Printf("  %s\n", ln.Identity)
		}
	}
}

func linkOrphaned(ctx context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	orphans, err := env.Links.FindOrphanedLinks(ctx, notestore.Scope{Category: cmd.String("category")})
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Println("No orphaned links found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NOTE\tBROKEN ENTRY")
	for _, o := range orphans {
		fmt.Fprintf(w, "%s\t%s\n", o.Source, o.Entry)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d orphaned links.\n", len(orphans))
	return nil
}

func linkPrune(ctx context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	pruned, opErr := env.Links.Prune(ctx, notestore.Scope{Category: cmd.String("category")})
	for _, o := range pruned {
		fmt.Printf("removed: %s -> %s\n", o.Source, o.Entry)
	}
	if opErr != nil {
		return opErr
	}
	if len(pruned) == 0 {
		fmt.Println("Nothing to prune.")
	} else {
		fmt.Printf("Pruned %d entries.\n", len(pruned))
	}
	return nil
}

func linkShow(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gebo link show NOTE")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	links, err := env.Links.ListLinks(ctx, identityArg(cmd.Args().First(), cmd.String("category")), true)
	if err != nil {
		return err
	}

	note := links.Note
	fmt.Println(note.Identity())
	if len(note.Tags) > 0 {
		fmt.Printf("Tags: %s\n", strings.Join(note.Tags, ", "))
	}
	fmt.Printf("Updated: %s\n", note.UpdatedAt.Format(timeFormat))

	fmt.Println("\nOutgoing:")
	if len(links.Outgoing) == 0 {
		fmt.Println("  (none)")
	} else {
		printOutgoing(links.Outgoing)
	}

	fmt.Println("\nBacklinks:")
	if len(links.Incoming) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, n := range links.Incoming {
			fmt.Printf("  %s\n", n.Identity())
		}
	}
	return nil
}
