// Package codehosting validates that a repository exists and is
// accessible, for the POST /repos/validate route. Deployment creation
// does not call it. Every call is a rate-limited read against a
// third-party API, so it sits behind the admission middleware same as
// the chat controller.
package codehosting

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v78/github"
)

var (
	ErrRepoNotFound     = errors.New("codehosting: repository not found")
	ErrRepoInaccessible = errors.New("codehosting: repository inaccessible")
)

type Repository struct {
	FullName string
	Private  bool
	CloneURL string
}

type Validator struct {
	client *github.Client
}

func NewValidator(token string) *Validator {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Validator{client: client}
}

// Validate checks that fullName ("owner/repo") exists and is reachable
// with the configured credentials.
func (v *Validator) Validate(ctx context.Context, fullName string) (Repository, error) {
	owner, repo, ok := splitFullName(fullName)
	if !ok {
		return Repository{}, fmt.Errorf("codehosting: malformed repository name %q", fullName)
	}

	r, resp, err := v.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return Repository{}, ErrRepoNotFound
		}
		if resp != nil && resp.StatusCode == 403 {
			return Repository{}, ErrRepoInaccessible
		}
		return Repository{}, err
	}

	return Repository{
		FullName: r.GetFullName(),
		Private:  r.GetPrivate(),
		CloneURL: r.GetCloneURL(),
	}, nil
}

func splitFullName(fullName string) (owner, repo string, ok bool) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
