// Package auth guards the research HTTP API served by codescout.
//
// Callers present either an API key in X-API-Key or an HMAC-signed JWT in
// the Authorization header. Each identity carries scopes (search, fetch,
// tree, admin) and Guard.Require rejects requests whose identity lacks the
// route's scope. With no keys and no JWT secret configured, every request
// runs as an anonymous identity holding AnonymousScopes.
//
// The GitHub credential used for a call is separate from API identity and
// travels in X-GitHub-Token.
package auth
