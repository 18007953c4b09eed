package secret

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Secrets: implementations must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider creates a provider backed by the process environment.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Name returns "env".
func (p *EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable named ref.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(ref)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: environment variable %s", ErrEmptySecret, ref)
	}
	return v, nil
}

// Close is a no-op.
func (p *EnvProvider) Close() error { return nil }

// RefPlaceholder in a CommandProvider argument is replaced by the reference.
const RefPlaceholder = "{ref}"

// CommandProvider resolves a reference by running a command and reading
// its trimmed standard output.
type CommandProvider struct {
	name    string
	command []string
}

// NewCommandProvider creates a provider that runs command. Arguments equal
// to or containing RefPlaceholder receive the reference.
func NewCommandProvider(name string, command ...string) *CommandProvider {
	return &CommandProvider{name: name, command: command}
}

// NewGHProvider returns a provider that asks the GitHub CLI for the token of
// the host named by the reference.
func NewGHProvider() *CommandProvider {
	return NewCommandProvider("gh", "gh", "auth", "token", "--hostname", RefPlaceholder)
}

// Name returns the provider name.
func (p *CommandProvider) Name() string { return p.name }

// Resolve runs the command. Stderr is included in errors; stdout never is.
func (p *CommandProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if len(p.command) == 0 {
		return "", fmt.Errorf("%w: provider %s has no command", ErrInvalidRef, p.name)
	}

	args := make([]string, len(p.command)-1)
	for i, a := range p.command[1:] {
		args[i] = strings.ReplaceAll(a, RefPlaceholder, ref)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.command[0], args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("secret: %s: %w: %s", p.name, err, strings.TrimSpace(stderr.String()))
	}

	v := strings.TrimSpace(stdout.String())
	if v == "" {
		return "", fmt.Errorf("%w: %s returned no output", ErrEmptySecret, p.name)
	}
	return v, nil
}

// Close is a no-op.
func (p *CommandProvider) Close() error { return nil }
