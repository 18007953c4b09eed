package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/codescout/research"
)

func newFetchCmd(g *globalOptions) *cobra.Command {
	var (
		req  research.FetchRequest
		mode string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <owner/repo> <path>",
		Short: "Fetch a file, a line range, pattern matches or a byte range",
		Long: `Fetch reads one file and prints it sanitized and minified.

The mode follows from the flags when --mode is not given: --pattern selects
pattern-match, --start-line or --end-line select line-range, and
--start-byte or --end-byte select byte-range.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := splitRepo(args[0])
			if err != nil {
				return err
			}
			req.Owner, req.Repo, req.Path = owner, repo, args[1]
			req.Mode = fetchMode(cmd, mode, req)
			if cmd.Flags().Changed("context") && req.ContextLines == 0 {
				req.ContextLines = -1
			}

			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			req.Token = a.token.Value
			res, err := a.orch.FetchContent(ctx, req)
			if err != nil {
				return err
			}
			if raw {
				return writeText(cmd.OutOrStdout(), res.Text)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&mode, "mode", "", "full, line-range, pattern-match or byte-range")
	fl.StringVar(&req.Ref, "ref", "", "branch, tag or commit (default: the default branch)")
	fl.IntVar(&req.StartLine, "start-line", 0, "first line, 1-based")
	fl.IntVar(&req.EndLine, "end-line", 0, "last line, inclusive (default: end of file)")
	fl.StringVarP(&req.Pattern, "pattern", "p", "", "text to match per line")
	fl.BoolVar(&req.Regex, "regex", false, "treat --pattern as a regular expression")
	fl.BoolVarP(&req.IgnoreCase, "ignore-case", "i", false, "match --pattern case-insensitively")
	fl.IntVarP(&req.ContextLines, "context", "C", research.DefaultContextLines, "lines of context around each match")
	fl.IntVar(&req.MaxMatches, "max-matches", research.DefaultMaxMatches, "stop after this many matching lines")
	fl.IntVar(&req.StartByte, "start-byte", 0, "first byte offset")
	fl.IntVar(&req.EndByte, "end-byte", 0, "end byte offset, exclusive (default: end of file)")
	fl.StringVar(&req.RequestID, "request-id", "", "request id for logs and traces")
	fl.BoolVar(&raw, "raw", false, "print only the processed text")
	return cmd
}

func fetchMode(cmd *cobra.Command, mode string, req research.FetchRequest) research.Mode {
	if mode != "" {
		return research.Mode(mode)
	}
	changed := cmd.Flags().Changed
	switch {
	case req.Pattern != "":
		return research.ModePatternMatch
	case changed("start-line") || changed("end-line"):
		return research.ModeLineRange
	case changed("start-byte") || changed("end-byte"):
		return research.ModeByteRange
	}
	return research.ModeFull
}

func writeText(w io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
