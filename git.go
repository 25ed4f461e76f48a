package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// isGitURL reports whether target looks like a remote repository rather
// than a local directory.
func isGitURL(target string) bool {
	if strings.HasPrefix(target, "git@") {
		return true
	}
	if !strings.HasSuffix(target, ".git") {
		return false
	}
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	return false
}

// cloneGitRepo shallow-clones url into a fresh temporary directory and
// returns its path. Only the working tree is left behind; the caller removes
// the directory.
func cloneGitRepo(url string, progress io.Writer, log *ConsoleLogger) (string, error) {
	tempDir, err := os.MkdirTemp("", "codepack-git-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	log.Infof("cloning %s into %s", url, tempDir)
	_, err = git.PlainClone(tempDir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		Depth:         1,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
	})
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return "", fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	if err := os.RemoveAll(filepath.Join(tempDir, ".git")); err != nil {
		log.Warnf("could not remove repository metadata from %s: %v", tempDir, err)
	}
	return tempDir, nil
}
