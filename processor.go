package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// discoverOptions controls which parts of the tree are pruned during the walk.
type discoverOptions struct {
	ExcludeHidden bool
	UseGitignore  bool
}

// discoverFiles recursively lists every regular file under root, sorted by
// absolute path. Pruned directories are never descended into.
func discoverFiles(root string, opts discoverOptions, log *ConsoleLogger) ([]DiscoveredFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", root, err)
	}

	var ignoreMatcher gitignore.IgnoreMatcher
	if opts.UseGitignore {
		gitIgnorePath := filepath.Join(absRoot, ".gitignore")
		if _, err := os.Stat(gitIgnorePath); err == nil {
			matcher, err := gitignore.NewGitIgnore(gitIgnorePath, absRoot)
			if err != nil {
				log.Warnf("could not parse %s: %v", gitIgnorePath, err)
			} else {
				ignoreMatcher = matcher
				log.Debugf("using ignore rules from %s", gitIgnorePath)
			}
		}
	}

	var files []DiscoveredFile
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == absRoot {
			return nil
		}

		name := d.Name()
		isDir := d.IsDir()

		if opts.ExcludeHidden && isHidden(name) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if ignoreMatcher != nil && ignoreMatcher.Match(path, isDir) {
			if isDir {
				return fs.SkipDir
			}
			return nil
		}

		if isDir || !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		files = append(files, DiscoveredFile{
			AbsPath:  path,
			RelPath:  filepath.ToSlash(relPath),
			IsHidden: isHidden(name),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}

	// WalkDir orders per directory; the full string order is what assigns IDs.
	sort.Slice(files, func(i, j int) bool {
		return files[i].AbsPath < files[j].AbsPath
	})
	return files, nil
}

// textDetector reports whether the file at path holds text.
type textDetector func(path string) (bool, error)

// fileClassifier applies the visibility, extension and content checks.
type fileClassifier struct {
	excludeHidden bool
	include       extensionMatcher
	exclude       extensionMatcher
	isText        textDetector
}

func newFileClassifier(cfg Config, isText textDetector) *fileClassifier {
	return &fileClassifier{
		excludeHidden: cfg.ExcludeHidden,
		include:       cfg.Include,
		exclude:       cfg.Exclude,
		isText:        isText,
	}
}

// Classify runs the checks in order and stops at the first one that skips.
func (c *fileClassifier) Classify(f DiscoveredFile) (Classification, error) {
	name := filepath.Base(f.AbsPath)

	if c.excludeHidden && f.IsHidden {
		return Classification{File: f, Reason: SkipHidden}, nil
	}
	if !c.include.Empty() && !c.include.Match(name) {
		return Classification{File: f, Reason: SkipNotIncluded}, nil
	}
	if !c.exclude.Empty() && c.exclude.Match(name) {
		return Classification{File: f, Reason: SkipExcluded}, nil
	}

	text, err := c.isText(f.AbsPath)
	if err != nil {
		return Classification{}, fmt.Errorf("error detecting content type of %s: %w", f.RelPath, err)
	}
	if !text {
		return Classification{File: f, Reason: SkipNonText}, nil
	}
	return Classification{File: f, Kept: true}, nil
}

// classifyFiles partitions files into kept and skipped, preserving order.
func classifyFiles(files []DiscoveredFile, c *fileClassifier) (kept []DiscoveredFile, skipped []Classification, err error) {
	for _, f := range files {
		result, err := c.Classify(f)
		if err != nil {
			return nil, nil, err
		}
		if result.Kept {
			kept = append(kept, f)
		} else {
			skipped = append(skipped, result)
		}
	}
	return kept, skipped, nil
}

// isHidden checks if a file or directory name starts with '.'.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
