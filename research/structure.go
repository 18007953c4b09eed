package research

import (
	"context"

	"github.com/jonwraymond/codescout/cache"
	"github.com/jonwraymond/codescout/githubapi"
	"github.com/jonwraymond/codescout/observe"
)

// StructureRequest names a directory and how deep to list it.
type StructureRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Ref   string `json:"ref,omitempty"`
	Path  string `json:"path,omitempty"`

	githubapi.StructureOptions

	Token     string `json:"-"`
	RequestID string `json:"-"`
}

// DirectoryListing is a depth-limited tree with entry counts.
type DirectoryListing struct {
	githubapi.Tree

	Files       int  `json:"files"`
	Directories int  `json:"directories"`
	Cached      bool `json:"cached"`
}

type structureKey struct {
	Location   githubapi.Location         `json:"location"`
	Options    githubapi.StructureOptions `json:"options"`
	Credential string                     `json:"credential"`
}

// ViewStructure lists the directory at req.Path down to req.Depth levels.
func (o *Orchestrator) ViewStructure(ctx context.Context, req StructureRequest) (*DirectoryListing, error) {
	ctx, err := o.begin(ctx, req.RequestID)
	if err != nil {
		return nil, err
	}

	loc := githubapi.Location{Owner: req.Owner, Repo: req.Repo, Path: req.Path, Ref: req.Ref}
	opts := req.StructureOptions.Normalize()
	meta := observe.OperationMeta{Kind: observe.KindStructure, Repository: loc.Repository()}

	return observe.Observe(ctx, o.obs, meta, func(ctx context.Context) (*DirectoryListing, error) {
		key := structureKey{Location: loc, Options: opts, Credential: githubapi.Fingerprint(req.Token)}
		tree, hit, err := cachedJSON(ctx, o, cache.PrefixRepoStructure, key, func(ctx context.Context) (*githubapi.Tree, error) {
			return o.client.ViewStructure(ctx, req.Token, loc, opts)
		})
		if err != nil {
			return nil, err
		}

		out := &DirectoryListing{Tree: *tree, Cached: hit}
		for _, e := range tree.Entries {
			if e.Type == "dir" {
				out.Directories++
			} else {
				out.Files++
			}
		}
		return out, nil
	})
}
