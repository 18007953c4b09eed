package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/codescout/research"
)

func newTreeCmd(g *globalOptions) *cobra.Command {
	var (
		req   research.StructureRequest
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "tree <owner/repo> [path]",
		Short: "List a repository directory down to a depth",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			req.Owner, req.Repo = owner, repo
			if len(args) == 2 {
				req.Path = args[1]
			}

			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			req.Token = a.token.Value
			listing, err := a.orch.ViewStructure(ctx, req)
			if err != nil {
				return err
			}
			if plain {
				return writeTree(cmd.OutOrStdout(), listing)
			}
			return writeJSON(cmd.OutOrStdout(), listing)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&req.Ref, "ref", "", "branch, tag or commit (default: the default branch)")
	fl.IntVarP(&req.Depth, "depth", "d", 1, "directory levels to list (max 5)")
	fl.IntVar(&req.MaxEntries, "max-entries", 0, "stop listing after this many entries (default 500)")
	fl.IntVar(&req.Parallelism, "parallelism", 0, "concurrent directory listings (default 4)")
	fl.StringVar(&req.RequestID, "request-id", "", "request id for logs and traces")
	fl.BoolVar(&plain, "plain", false, "print an indented listing instead of JSON")
	return cmd
}

// writeTree prints one entry per line, indented by depth below the root.
func writeTree(w io.Writer, listing *research.DirectoryListing) error {
	root := strings.Trim(listing.Root, "/")
	var b strings.Builder
	for _, e := range listing.Entries {
		rel := strings.TrimPrefix(strings.TrimPrefix(e.Path, root), "/")
		depth := strings.Count(rel, "/")
		name := path.Base(rel)
		if e.Type == "dir" {
			name += "/"
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), name)
	}
	fmt.Fprintf(&b, "\n%d directories, %d files", listing.Directories, listing.Files)
	if listing.Truncated {
		b.WriteString(" (truncated)")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
