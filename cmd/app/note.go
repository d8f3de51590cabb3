package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
	"github.com/urfave/cli/v3"
)

const timeFormat = "2006-01-02 15:04"

func noteCommand() *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Create, inspect and search notes",
		Commands: []*cli.Command{
			{
				Name:      "new",
				Usage:     "Create a new note",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category for the new note"},
					&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Overwrite an existing note"},
				},
				Action: noteNew,
			},
			{
				Name:      "show",
				Usage:     "Print a note's metadata and body",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category of the note"},
				},
				Action: noteShow,
			},
			{
				Name:  "list",
				Usage: "List notes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only notes in this category"},
					&cli.StringFlag{Name: "tag", Usage: "Only notes carrying this tag"},
					&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Value: "updated", Usage: "Sort order: updated, created or title"},
				},
				Action: noteList,
			},
			{
				Name:  "count",
				Usage: "Count notes per category and per tag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only notes in this category"},
				},
				Action: noteCount,
			},
			{
				Name:      "search",
				Usage:     "Full-text search through the note index",
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 10, Usage: "Maximum number of results"},
				},
				Action: noteSearch,
			},
		},
	}
}

func noteNew(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gebo note new TITLE")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	title := cmd.Args().First()
	n := &models.Note{
		Title:     title,
		Category:  cmd.String("category"),
		Tags:      splitTags(cmd.String("tags")),
		CreatedAt: now,
		UpdatedAt: now,
		Body:      fmt.Sprintf("# %s\n", title),
	}
	save := env.Store.Create
	if cmd.Bool("force") {
		save = env.Store.Save
	}
	if err := save(n); err != nil {
		return err
	}
	fmt.Printf("Created %s (%s)\n", n.Identity(), n.Path)
	return nil
}

func noteShow(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gebo note show TITLE")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	note, err := env.Store.Resolve(identityArg(cmd.Args().First(), cmd.String("category")))
	if err != nil {
		return err
	}

	fmt.Printf("Title:    %s\n", note.Title)
	if note.Category != "" {
		fmt.Printf("Category: %s\n", note.Category)
	}
	if len(note.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(note.Tags, ", "))
	}
	if len(note.LinkedNotes) > 0 {
		fmt.Printf("Links:    %s\n", strings.Join(note.LinkedNotes, ", "))
	}
	fmt.Printf("Created:  %s\n", note.CreatedAt.Format(timeFormat))
	fmt.Printf("Updated:  %s\n", note.UpdatedAt.Format(timeFormat))
	fmt.Printf("Path:     %s\n", note.Path)
	fmt.Println()
	fmt.Print(note.Body)
	return nil
}

func noteList(_ context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	notes, err := env.Store.EnumerateAll(notestore.Scope{Category: cmd.String("category")})
	if err != nil {
		return err
	}

	tag := cmd.String("tag")
	kept := notes[:0]
	for _, n := range notes {
		if tag == "" || n.HasTag(tag) {
			kept = append(kept, n)
		}
	}
	switch cmd.String("sort") {
	case "title":
		// Enumeration order is already by identity string.
	case "created":
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].CreatedAt.After(kept[j].CreatedAt) })
	default:
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].UpdatedAt.After(kept[j].UpdatedAt) })
	}

	if len(kept) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NOTE\tTAGS\tLINKS\tUPDATED")
	for _, n := range kept {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			n.Identity(), strings.Join(n.Tags, ","), len(n.LinkedNotes), n.UpdatedAt.Format(timeFormat))
	}
	return w.Flush()
}

func noteCount(_ context.Context, cmd *cli.Command) error {
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	notes, err := env.Store.EnumerateAll(notestore.Scope{Category: cmd.String("category")})
	if err != nil {
		return err
	}

	byCategory := map[string]int{}
	byTag := map[string]int{}
	for _, n := range notes {
		byCategory[n.Category]++
		for _, t := range n.Tags {
			byTag[t]++
		}
	}

	fmt.Printf("%d notes\n", len(notes))
	if len(byCategory) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tNOTES")
		for _, cat := range sortedKeys(byCategory) {
			label := cat
			if label == "" {
				label = "(none)"
			}
			fmt.Fprintf(w, "%s\t%d\n", label, byCategory[cat])
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if len(byTag) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TAG\tNOTES")
		for _, t := range sortedKeys(byTag) {
			fmt.Fprintf(w, "%s\t%d\n", t, byTag[t])
		}
		return w.Flush()
	}
	return nil
}

func noteSearch(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("usage: gebo note search QUERY")
	}
	env, err := commandEnv(cmd)
	if err != nil {
		return err
	}
	db, err := env.OpenIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(cmd.Args().First(), int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matching notes found.")
		return nil
	}
	for _, r := range results {
		id := r.Title
		if r.Category != "" {
			id = r.Category + "/" + r.Title
		}
		fmt.Println(id)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
	}
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
