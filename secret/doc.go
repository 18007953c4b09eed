// Package secret resolves the GitHub credential and other configured secrets.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider and Registry), including the
//     process environment and external commands such as the GitHub CLI
//   - Resolving secretref words in configuration values (see Resolver)
//   - Locating a GitHub token: env, then CLI, then a stored reference
//     (see TokenChain)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:CODESCOUT_TOKEN
//   - Inline use:  Bearer secretref:gh:github.com
package secret
