// Package github fetches script files and commit SHAs from the GitHub
// repositories that host the catalog's scripts.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v50/github"
	"golang.org/x/oauth2"
)

// ErrNotFound is returned when neither default branch has the requested object.
var ErrNotFound = errors.New("not found on main or master")

// Branches are tried in order; older repositories still use master.
var Branches = []string{"main", "master"}

// Config holds GitHub API configuration.
type Config struct {
	// Owner is the account that hosts every script repository.
	Owner string
	// Token is an optional personal access token.
	Token string
	// BaseURL overrides the API endpoint, for GitHub Enterprise or tests.
	BaseURL string
}

// AuthMethod represents the type of GitHub authentication being used.
type AuthMethod string

const (
	AuthMethodToken AuthMethod = "personal_token"
	AuthMethodNone  AuthMethod = "none"
)

// Client handles GitHub API operations.
type Client struct {
	client     *github.Client
	owner      string
	authMethod AuthMethod
}

// NewClient creates a client. Without a token it is anonymous and subject to
// the unauthenticated rate limit.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Owner == "" {
		return nil, errors.New("github owner is required")
	}

	httpClient := http.DefaultClient
	authMethod := AuthMethodNone
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
		authMethod = AuthMethodToken
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = "scriptdeck"
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	return &Client{client: gh, owner: cfg.Owner, authMethod: authMethod}, nil
}

// GetAuthMethod returns the authentication method being used.
func (c *Client) GetAuthMethod() AuthMethod {
	return c.authMethod
}

// Owner is the account the client reads from.
func (c *Client) Owner() string { return c.owner }

// LatestCommit returns the head commit SHA of repo's default branch.
func (c *Client) LatestCommit(ctx context.Context, repo string) (string, error) {
	var lastErr error
	for _, branch := range Branches {
		commit, _, err := c.client.Repositories.GetCommit(ctx, c.owner, repo, branch, nil)
		if err == nil {
			return strings.TrimSpace(commit.GetSHA()), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", c.wrap("latest commit", repo, "", lastErr)
}

// FileContent returns the decoded content of path in repo, trying each
// default branch.
func (c *Client) FileContent(ctx context.Context, repo, path string) ([]byte, error) {
	var lastErr error
	for _, branch := range Branches {
		file, _, _, err := c.client.Repositories.GetContents(ctx, c.owner, repo, path,
			&github.RepositoryContentGetOptions{Ref: branch})
		if err == nil {
			if file == nil {
				lastErr = fmt.Errorf("%s is a directory", path)
				continue
			}
			content, err := file.GetContent()
			if err != nil {
				return nil, fmt.Errorf("decode %s/%s: %w", repo, path, err)
			}
			return []byte(content), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, c.wrap("file", repo, path, lastErr)
}

func (c *Client) wrap(what, repo, path string, err error) error {
	target := c.owner + "/" + repo
	if path != "" {
		target += "/" + path
	}
	if isNotFound(err) {
		return fmt.Errorf("%s %s: %w", what, target, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", what, target, err)
}

func isNotFound(err error) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound
}
