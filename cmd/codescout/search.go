package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/research"
)

type searchFlags struct {
	filter     string
	filterFile string
	owner      []string
	repo       []string
	language   []string
	state      string
	requestID  string
	opts       githubapi.SearchOptions
}

func newSearchCmd(g *globalOptions) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search <kind> [terms...]",
		Short: "Search code, repositories, pull requests, issues or commits",
		Long: `Search runs one GitHub search and prints the page as JSON.

Kinds: code, repositories (repos), pull_requests (prs), issues, commits.
Qualifiers come from --filter, a YAML or JSON object using the filter field
names, for example '{language: [go], path: internal}'. --owner, --repo,
--language and --state set the matching fields.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := research.ParseKind(args[0])
			if err != nil {
				return err
			}
			filter, err := f.build(kind, args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.orch.Search(ctx, kind, filter, research.CallOptions{
				SearchOptions: f.opts,
				Token:         a.token.Value,
				RequestID:     f.requestID,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&f.filter, "filter", "", "filter fields as YAML or JSON")
	cmd.Flags().StringVarP(&f.filterFile, "filter-file", "f", "", "read filter fields from a YAML or JSON file")
	cmd.Flags().StringSliceVar(&f.owner, "owner", nil, "restrict to owners (user or org)")
	cmd.Flags().StringSliceVar(&f.repo, "repo", nil, "restrict to repositories (owner/name or name with --owner)")
	cmd.Flags().StringSliceVarP(&f.language, "language", "l", nil, "restrict to languages")
	cmd.Flags().StringVar(&f.state, "state", "", "open or closed (pull requests and issues)")
	cmd.Flags().StringVar(&f.opts.Sort, "sort", "", "sort field")
	cmd.Flags().StringVar(&f.opts.Order, "order", "", "asc or desc")
	cmd.Flags().IntVar(&f.opts.Page, "page", 1, "result page")
	cmd.Flags().IntVar(&f.opts.PerPage, "per-page", 0, "results per page (default 30, max 100)")
	cmd.Flags().BoolVar(&f.opts.TextMatch, "text-match", false, "request text match fragments")
	cmd.Flags().StringVar(&f.requestID, "request-id", "", "request id for logs and traces")
	cmd.MarkFlagsMutuallyExclusive("filter", "filter-file")
	return cmd
}

// build merges the filter document with the field flags and decodes the
// result into the kind's filter type. Fields the kind does not have are
// rejected.
func (f *searchFlags) build(kind research.Kind, terms []string) (any, error) {
	doc := map[string]any{}

	raw := []byte(f.filter)
	if f.filterFile != "" {
		data, err := os.ReadFile(f.filterFile)
		if err != nil {
			return nil, fmt.Errorf("read filter: %w", err)
		}
		raw = data
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse filter: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	if len(terms) > 0 {
		doc["terms"] = terms
	}
	if len(f.owner) > 0 {
		doc["owner"] = f.owner
	}
	if len(f.repo) > 0 {
		doc["repo"] = f.repo
	}
	if len(f.language) > 0 {
		doc["language"] = f.language
	}
	if f.state != "" {
		doc["state"] = f.state
	}

	filter, err := research.NewFilter(kind)
	if err != nil {
		return nil, err
	}
	merged, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(merged))
	dec.KnownFields(true)
	if err := dec.Decode(filter); err != nil {
		return nil, fmt.Errorf("%s filter: %w", kind, err)
	}
	return filter, nil
}
