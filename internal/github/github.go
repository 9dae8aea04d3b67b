// Package github looks up repository metadata through the gh CLI so a
// collection can be created from a GitHub repository.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/joescharf/ideas/internal/models"
)

// RepoInfo is the repository metadata a collection is built from.
type RepoInfo struct {
	Owner       string
	Name        string
	Description string
	Language    string
	Stars       int
	URL         string
}

// Client fetches repository metadata.
type Client interface {
	RepoInfo(ctx context.Context, owner, repo string) (*RepoInfo, error)
}

// CLIClient implements Client using the gh CLI.
type CLIClient struct{}

// NewClient returns a gh-backed client.
func NewClient() *CLIClient {
	return &CLIClient{}
}

func ghCmd(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "gh", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

type repoInfoRaw struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	StargazerCount  int    `json:"stargazerCount"`
	PrimaryLanguage struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	URL string `json:"url"`
}

func (c *CLIClient) RepoInfo(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	out, err := ghCmd(ctx, "repo", "view",
		owner+"/"+repo,
		"--json", "name,description,stargazerCount,primaryLanguage,url",
	)
	if err != nil {
		return nil, err
	}
	return decodeRepoInfo(owner, out)
}

func decodeRepoInfo(owner string, data []byte) (*RepoInfo, error) {
	var raw repoInfoRaw
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse repo info: %w", err)
	}
	return &RepoInfo{
		Owner:       owner,
		Name:        raw.Name,
		Description: raw.Description,
		Language:    raw.PrimaryLanguage.Name,
		Stars:       raw.StargazerCount,
		URL:         raw.URL,
	}, nil
}

// ParseRepoRef accepts owner/repo, an HTTPS URL or an SSH remote and returns
// the owner and repository name.
func ParseRepoRef(ref string) (owner, repo string, err error) {
	ref = strings.TrimSpace(ref)

	// git@github.com:owner/repo.git
	if strings.HasPrefix(ref, "git@") {
		parts := strings.SplitN(ref, ":", 2)
		if len(parts) != 2 {
			return "", "", fmt.Errorf("%w: cannot parse SSH remote %q", models.ErrValidation, ref)
		}
		ref = parts[1]
	}

	trimmed := strings.TrimSuffix(strings.TrimSuffix(ref, "/"), ".git")
	for _, prefix := range []string{"https://", "http://"} {
		trimmed = strings.TrimPrefix(trimmed, prefix)
	}
	trimmed = strings.TrimPrefix(trimmed, "www.")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")

	segments := strings.Split(trimmed, "/")
	if len(segments) != 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("%w: cannot parse owner/repo from %q", models.ErrValidation, ref)
	}
	return segments[0], segments[1], nil
}

// Collection builds a collection from repository metadata. The original
// description becomes the summary pitches are generated from.
func Collection(info *RepoInfo) *models.Collection {
	name := info.Name
	if info.Owner != "" {
		name = info.Owner + "/" + info.Name
	}
	url := info.URL
	if url == "" && info.Owner != "" {
		url = fmt.Sprintf("https://github.com/%s/%s", info.Owner, info.Name)
	}
	return &models.Collection{
		Name:     name,
		URL:      url,
		Summary:  strings.TrimSpace(info.Description),
		Language: info.Language,
	}
}
