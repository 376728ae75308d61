package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

// GitHubStore keeps documents as files of a repository branch through the
// Contents API. The blob SHA is the revision token.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

type GitHubStoreConfig struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	BaseURL string
	HTTP    *http.Client
}

func NewGitHubStore(cfg GitHubStoreConfig) (*GitHubStore, error) {
	if cfg.Token == "" || cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github store: token, owner and repo are required")
	}
	client := github.NewClient(cfg.HTTP).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("github store: invalid base url: %w", err)
		}
		client.BaseURL = parsed
	}
	return &GitHubStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
	}, nil
}

func (s *GitHubStore) Get(ctx context.Context, path string) (*Document, error) {
	opts := &github.RepositoryContentGetOptions{Ref: s.branch}
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path, opts)
	if err != nil {
		return nil, translateGitHubError("get "+path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("get %s: path is a directory: %w", path, ErrNotFound)
	}

	// Files above 1 MB come back without inline content.
	if file.GetEncoding() == "none" {
		body, _, err := s.client.Repositories.DownloadContents(ctx, s.owner, s.repo, path, opts)
		if err != nil {
			return nil, translateGitHubError("download "+path, err)
		}
		defer body.Close()
		content, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", path, err)
		}
		return &Document{Content: content, Revision: file.GetSHA()}, nil
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &Document{Content: []byte(content), Revision: file.GetSHA()}, nil
}

func (s *GitHubStore) Put(ctx context.Context, path string, content []byte, revision string, message string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
	)
	if revision == "" {
		resp, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		opts.SHA = github.String(revision)
		resp, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		return "", translateGitHubError("put "+path, err)
	}
	if resp == nil || resp.Content == nil {
		return "", fmt.Errorf("put %s: empty response from github", path)
	}
	return resp.Content.GetSHA(), nil
}

func translateGitHubError(op string, err error) error {
	var apiErr *github.ErrorResponse
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch apiErr.Response.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %s: %w", op, apiErr.Message, ErrConflict)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", op, apiErr.Message, ErrUnauthorized)
	}
	return fmt.Errorf("%s: %w", op, err)
}
