// Package query builds GitHub search query strings from structured filters.
//
// Each builder is a pure function: the same filter always produces the same
// query. Tokens are emitted in a fixed order, free text first, then
// qualifiers, with the entity qualifier (is:pr, is:issue) last.
//
// Rules shared by every builder:
//
//   - A scalar field becomes one qualifier:value token.
//   - A list field becomes one token per element. Repeated qualifiers are
//     ANDed by GitHub.
//   - AnyOf terms are joined with OR.
//   - Owner and Repo collapse to repo:owner/name. Several owners and repos
//     expand to every owner/name pair joined with OR. Owner alone becomes
//     user:owner per owner.
//   - No* booleans become no:<field> when true and nothing otherwise.
//   - Values containing whitespace are quoted. ExactPhrase is always quoted.
//
// A filter with no constraint builds the empty string. Callers must reject it
// with Check before going to the network.
package query
