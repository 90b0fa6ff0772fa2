// Package gitsource keeps local checkouts of remote deck repositories.
package gitsource

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// IsURL reports whether location names a remote git repository rather than
// a local directory.
func IsURL(location string) bool {
	for _, prefix := range []string{"https://", "http://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(location, prefix) {
			return true
		}
	}
	return false
}

// LocalPath returns where the repository at repoURL is checked out below baseDir.
// Both https://host/user/repo.git and git@host:user/repo.git map to
// baseDir/host/user/repo.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || parsed.Host == "" {
		// scp-like syntax: user@host:path
		at := strings.Index(repoURL, "@")
		colon := strings.Index(repoURL, ":")
		if at < 0 || colon < at {
			return "", errors.Errorf("could not parse git URL: %s", repoURL)
		}
		host := repoURL[at+1 : colon]
		repoPath := strings.TrimSuffix(repoURL[colon+1:], ".git")
		if host == "" || repoPath == "" {
			return "", errors.Errorf("could not parse git URL: %s", repoURL)
		}
		return checkoutPath(baseDir, host, repoPath)
	}

	repoPath := strings.TrimSuffix(strings.Trim(parsed.Path, "/"), ".git")
	if repoPath == "" {
		return "", errors.Errorf("git URL has no repository path: %s", repoURL)
	}
	return checkoutPath(baseDir, parsed.Hostname(), repoPath)
}

// checkoutPath joins host and repoPath below baseDir, refusing segments that
// would leave it.
func checkoutPath(baseDir, host, repoPath string) (string, error) {
	for _, segment := range append([]string{host}, strings.Split(repoPath, "/")...) {
		if segment == ".." || strings.ContainsRune(segment, filepath.Separator) {
			return "", errors.Errorf("git URL escapes the checkout directory: %s/%s", host, repoPath)
		}
	}
	localPath := filepath.Join(baseDir, host, filepath.FromSlash(repoPath))
	rel, err := filepath.Rel(baseDir, localPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("git URL escapes the checkout directory: %s/%s", host, repoPath)
	}
	return localPath, nil
}

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, repoURL, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning repository", "url", repoURL, "path", localPath)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", filepath.Dir(localPath))
		}
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: progress,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to clone repo %s", repoURL)
		}
	case err == nil:
		slog.Info("pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open existing repo at %s", localPath)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return errors.Wrapf(err, "failed to get worktree for repo at %s", localPath)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return errors.Wrapf(err, "failed to pull changes for repo at %s", localPath)
		}
	default:
		return errors.Wrapf(err, "error checking path %s", localPath)
	}
	return nil
}
