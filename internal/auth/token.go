// Package auth resolves the bearer token used to talk to the GitHub API.
//
// Every source implements oauth2.TokenSource so the resolved credential can be
// handed straight to an oauth2.Transport.
package auth

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultEnvVar is the environment variable holding a token directly.
const DefaultEnvVar = "GITHUB_TOKEN"

// ErrNoToken is returned when no source yields a token.
var ErrNoToken = errors.New("no GitHub token found: set GITHUB_TOKEN or run 'gh auth login'")

// errNoSourceToken marks a single source that came up empty.
var errNoSourceToken = errors.New("no token from source")

func bearer(value string) *oauth2.Token {
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}
}

// EnvSource reads the token from an environment variable.
type EnvSource struct {
	Name string
}

// Token implements oauth2.TokenSource.
func (s EnvSource) Token() (*oauth2.Token, error) {
	name := s.Name
	if name == "" {
		name = DefaultEnvVar
	}
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil, errNoSourceToken
	}
	return bearer(value), nil
}

// HelperSource runs an external credential helper and uses its trimmed stdout as token.
// A missing binary, a non-zero exit or empty output all count as "no token".
type HelperSource struct {
	Command string
	Args    []string
}

// GHHelper returns the `gh auth token` helper, scoped to hostname when it is
// not github.com.
func GHHelper(hostname string) HelperSource {
	args := []string{"auth", "token"}
	if hostname != "" && hostname != "github.com" {
		args = append(args, "--hostname", hostname)
	}
	return HelperSource{Command: "gh", Args: args}
}

// Token implements oauth2.TokenSource.
func (s HelperSource) Token() (*oauth2.Token, error) {
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return nil, errNoSourceToken
	}
	out, err := exec.Command(path, s.Args...).Output()
	if err != nil {
		return nil, errNoSourceToken
	}
	value := strings.TrimSpace(string(out))
	if value == "" {
		return nil, errNoSourceToken
	}
	return bearer(value), nil
}

// Chain tries each source in order and returns the first token found.
type Chain []oauth2.TokenSource

// Token implements oauth2.TokenSource. It returns ErrNoToken when every source fails.
func (c Chain) Token() (*oauth2.Token, error) {
	for _, src := range c {
		tok, err := src.Token()
		if err == nil && tok != nil && tok.AccessToken != "" {
			return tok, nil
		}
	}
	return nil, ErrNoToken
}

// DefaultChain is the environment variable followed by the gh CLI helper.
func DefaultChain(hostname string) Chain {
	return Chain{EnvSource{Name: DefaultEnvVar}, GHHelper(hostname)}
}
