package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the user's config file and CODEPACK_* variables out of the
// run under test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range os.Environ() {
		if name, _, ok := strings.Cut(env, "="); ok && strings.HasPrefix(name, "CODEPACK_") {
			t.Setenv(name, "")
		}
	}
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const binaryContent = "\x00\x01\x02\x03\x04\x05\x00\x10"

func TestRunTextAndBinary(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.py":  "x = 1\ny = 2\n",
		"b.bin": binaryContent,
	})

	t.Run("binary silently skipped", func(t *testing.T) {
		code, stdout, _ := runCLI(t, root)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Total files: 1\n")
		assert.Contains(t, stdout, "| 1 | a.py | py | 2 | 12 |\n")
		assert.Contains(t, stdout, "```python\nx = 1\ny = 2\n```\n")
		assert.NotContains(t, stdout, "b.bin")
	})

	t.Run("binary logged when verbose", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "-v", root)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "<!-- SKIPPED_FILE: b.bin (Reason: non-text-file) -->\n")
	})
}

func TestRunIncludeFilter(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n", "a.md": "# a\n"})

	code, stdout, _ := runCLI(t, "-v", "-i", "py", "-d", root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Total files: 1\n")
	assert.Contains(t, stdout, `<!-- BEGIN_FILE id="1" path="a.py" -->`)
	assert.NotContains(t, stdout, `path="a.md"`)
	assert.Contains(t, stdout, "<!-- SKIPPED_FILE: a.md (Reason: not-in-include-filter) -->\n")
}

func TestRunExcludeFilter(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n", "a.md": "# a\n", "b.md": "# b\n"})

	code, stdout, _ := runCLI(t, "-v", "-e", " md , txt", root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Total files: 1\n")
	assert.Contains(t, stdout, "<!-- SKIPPED_FILE: a.md (Reason: matched-exclude-filter) -->\n")
	assert.Contains(t, stdout, "<!-- SKIPPED_FILE: b.md (Reason: matched-exclude-filter) -->\n")
}

func TestRunExtensionlessFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"README": "read me\n"})

	code, stdout, _ := runCLI(t, root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "| 1 | README | README | 1 | 8 |\n")
	assert.Contains(t, stdout, "Type: README | Lines: 1 | Size: 8 bytes\n")
	assert.Contains(t, stdout, "```text\nread me\n```\n")
}

func TestRunExcludeHidden(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".env":         "SECRET=1\n",
		".config/x.py": "print(1)\n",
		"a.py":         "pass\n",
	})

	t.Run("hidden paths never reach the document", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "-Hv", root)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Total files: 1\n")
		assert.NotContains(t, stdout, ".env")
		assert.NotContains(t, stdout, ".config")
		assert.NotContains(t, stdout, string(SkipHidden))
	})

	t.Run("hidden paths kept by default", func(t *testing.T) {
		code, stdout, _ := runCLI(t, root)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Total files: 3\n")
		assert.Contains(t, stdout, "| 1 | .config/x.py | py | 1 | 9 |\n")
		assert.Contains(t, stdout, "| 2 | .env | env | 1 | 9 |\n")
		assert.Contains(t, stdout, "| 3 | a.py | py | 1 | 5 |\n")
	})
}

func TestRunIncludeAndExcludeConflict(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n"})

	code, stdout, stderr := runCLI(t, "-i", "py", "-e", "md", root)
	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "cannot use -i (include) and -e (exclude) together")
}

func TestRunBadTarget(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"file.txt": "x\n"})

	for name, target := range map[string]string{
		"missing":   filepath.Join(root, "missing"),
		"not a dir": filepath.Join(root, "file.txt"),
	} {
		t.Run(name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "-d", target)
			assert.Equal(t, exitError, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "directory not found: "+target)
		})
	}
}

func TestRunNoMatchingFiles(t *testing.T) {
	isolate(t)

	t.Run("empty directory", func(t *testing.T) {
		code, stdout, _ := runCLI(t, t.TempDir())
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "No matching files found.\n", stdout)
	})

	t.Run("everything filtered", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"a.py": "pass\n", "b.bin": binaryContent})
		code, stdout, _ := runCLI(t, "-v", "-e", "py", root)
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "No matching files found.\n", stdout)
	})
}

func TestRunIsIdempotent(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.go":          "package z\n",
		"a/b/c.py":      "pass",
		"a-b.md":        "# title\n```go\nx\n```\n",
		"img.bin":       binaryContent,
		"docs/READ.txt": "text\n",
	})

	_, first, _ := runCLI(t, "-v", root)
	_, second, _ := runCLI(t, "-v", root)
	assert.Equal(t, first, second)

	rows := rowPattern.FindAllStringSubmatch(first, -1)
	sections := sectionPattern.FindAllStringSubmatch(first, -1)
	require.Len(t, rows, 4)
	require.Len(t, sections, 4)
	for i := range rows {
		assert.Equal(t, rows[i][1:], sections[i][1:])
	}
	assert.Equal(t, []string{"a-b.md", "a/b/c.py", "docs/READ.txt", "z.go"},
		[]string{rows[0][2], rows[1][2], rows[2][2], rows[3][2]})
}

func TestRunHelp(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{{"-h"}, {"--help"}, {"-i", "py", "-e", "md", "-h"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			code, stdout, stderr := runCLI(t, args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, stdout, "Usage:")
			assert.Contains(t, stdout, "codepack [flags] [DIR]")
			assert.NotContains(t, stderr, "Error")
		})
	}
}

func TestRunInvalidOption(t *testing.T) {
	isolate(t)

	code, stdout, stderr := runCLI(t, "-z")
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "invalid option")
	assert.Contains(t, stderr, "Usage:")
}

func TestRunTargetSelection(t *testing.T) {
	isolate(t)
	dirFlag := t.TempDir()
	positional := t.TempDir()
	writeTree(t, dirFlag, map[string]string{"flag.go": "package flag\n"})
	writeTree(t, positional, map[string]string{"pos.go": "package pos\n"})

	t.Run("directory flag wins", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "-d", dirFlag, positional)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "flag.go")
		assert.NotContains(t, stdout, "pos.go")
		assert.Contains(t, stderr, "ignoring positional arguments")
	})

	t.Run("single positional", func(t *testing.T) {
		code, stdout, _ := runCLI(t, positional)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "pos.go")
	})

	t.Run("current directory by default", func(t *testing.T) {
		t.Chdir(positional)
		code, stdout, _ := runCLI(t)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "| 1 | pos.go | go | 1 | 12 |\n")
	})
}

func TestRunConfigFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{".env": "A=1\n", "a.py": "pass\n", "b.md": "# b\n"})

	cfgPath := filepath.Join(t.TempDir(), "codepack.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("exclude_hidden = true\ninclude = [\"py\"]\n"), 0644))

	code, stdout, _ := runCLI(t, "--config", cfgPath, root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Total files: 1\n")
	assert.Contains(t, stdout, "a.py")
	assert.NotContains(t, stdout, ".env")

	t.Run("flag and config conflict", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "--config", cfgPath, "-e", "md", root)
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout)
	})

	t.Run("unreadable config", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "--config", filepath.Join(root, "nope.toml"), root)
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "error reading config file")
	})
}

func TestRunHomeConfigFile(t *testing.T) {
	isolate(t)
	home := os.Getenv("HOME")
	writeTree(t, home, map[string]string{".config/codepack/config.toml": "exclude = \"md\"\n"})
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n", "b.md": "# b\n"})

	code, stdout, _ := runCLI(t, root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Total files: 1\n")
	assert.NotContains(t, stdout, "b.md")
}

func TestRunEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("CODEPACK_EXCLUDE", "md")
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n", "b.md": "# b\n"})

	code, stdout, _ := runCLI(t, root)
	assert.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "b.md")

	code, stdout, _ = runCLI(t, "-i", "md", root)
	assert.Equal(t, exitError, code, "env exclude conflicts with flag include")
	assert.Empty(t, stdout)
}

func TestRunOutputFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})
	outPath := filepath.Join(t.TempDir(), "context.md")

	code, stdout, _ := runCLI(t, "-f", outPath, root)
	assert.Equal(t, exitOK, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	_, direct, _ := runCLI(t, root)
	assert.Equal(t, direct, string(data))
}

func TestRunLanguagesFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"view.vue": "<template></template>\n"})
	langs := filepath.Join(t.TempDir(), "languages.yml")
	require.NoError(t, os.WriteFile(langs, []byte("vue: html\n"), 0644))

	code, stdout, _ := runCLI(t, "--languages", langs, root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "```html\n<template></template>\n```\n")

	code, stdout, _ = runCLI(t, "--languages", filepath.Join(root, "missing.yml"), root)
	assert.Equal(t, exitError, code)
	assert.Empty(t, stdout)
}

func TestRunPDF(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})
	pdfPath := filepath.Join(t.TempDir(), "context.pdf")

	code, stdout, _ := runCLI(t, "--pdf", pdfPath, root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Total files: 1\n")
	assertPDF(t, pdfPath)
}

func TestRunTokens(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "one two three\n", "b.go": "package b\n"})

	t.Run("total in inventory", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		tk := &wordTokenizer{}
		a := newApp(&stdout, &stderr)
		a.newTokenizer = func(kind, model, file string, _ *ConsoleLogger) (Tokenizer, error) {
			assert.Equal(t, tokenizerHuggingFace, kind)
			assert.Equal(t, "gpt2", model)
			return tk, nil
		}

		code := a.execute([]string{"-t", "--tokenizer", "huggingface", "--model", "gpt2", root})
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout.String(), "Total files: 2\nEstimated tokens: 5\n")
		assert.True(t, tk.closed)
	})

	t.Run("tokenizer failure disables counting", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		a := newApp(&stdout, &stderr)
		a.newTokenizer = func(string, string, string, *ConsoleLogger) (Tokenizer, error) {
			return nil, errors.New("offline")
		}

		code := a.execute([]string{"--tokens", root})
		assert.Equal(t, exitOK, code)
		assert.NotContains(t, stdout.String(), "Estimated tokens")
		assert.Contains(t, stderr.String(), "token counting disabled: offline")
	})

	t.Run("unsupported tokenizer", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "--tokens", "--tokenizer", "bogus", root)
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "unsupported tokenizer")
	})
}

func TestResolveConfigReturnsConfigError(t *testing.T) {
	isolate(t)
	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	cmd := a.newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-i", "go", "-e", "md"}))

	_, err := a.resolveConfig(cmd, nil)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunListSplitsOnCommasOnly(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "pass\n", "b.md": "# b\n"})

	t.Run("space is part of the token", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "-i", "py md", root)
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "No matching files found.\n", stdout)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("CODEPACK_INCLUDE", "py md")
		code, stdout, _ := runCLI(t, root)
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "No matching files found.\n", stdout)
	})

	t.Run("config string", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "codepack.toml")
		require.NoError(t, os.WriteFile(cfgPath, []byte("include = \"py md\"\n"), 0644))
		code, stdout, _ := runCLI(t, "--config", cfgPath, root)
		assert.Equal(t, exitOK, code)
		assert.Equal(t, "No matching files found.\n", stdout)
	})

	t.Run("commas separate tokens", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "-i", "py , md", root)
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout, "Total files: 2\n")
	})
}

func TestRunGitURLTarget(t *testing.T) {
	isolate(t)
	const url = "https://example.com/demo.git"

	fakeClone := func(t *testing.T, cloned *string, progressOut *io.Writer) func(string, io.Writer, *ConsoleLogger) (string, error) {
		return func(got string, progress io.Writer, _ *ConsoleLogger) (string, error) {
			assert.Equal(t, url, got)
			dir, err := os.MkdirTemp("", "codepack-clone-")
			require.NoError(t, err)
			t.Cleanup(func() { _ = os.RemoveAll(dir) })
			writeTree(t, dir, map[string]string{"main.go": "package main\n"})
			*cloned = dir
			*progressOut = progress
			return dir, nil
		}
	}

	t.Run("cloned tree packed then removed", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		var cloned string
		var progress io.Writer
		a := newApp(&stdout, &stderr)
		a.cloneRepo = fakeClone(t, &cloned, &progress)

		code := a.execute([]string{url})
		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout.String(), "| 1 | main.go | go | 1 | 13 |\n")
		assert.Nil(t, progress)
		require.NotEmpty(t, cloned)
		assert.NoDirExists(t, cloned)
	})

	t.Run("verbose streams progress to stderr", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		var cloned string
		var progress io.Writer
		a := newApp(&stdout, &stderr)
		a.cloneRepo = fakeClone(t, &cloned, &progress)

		code := a.execute([]string{"-v", "-d", url})
		assert.Equal(t, exitOK, code)
		assert.Equal(t, &stderr, progress)
		assert.NoDirExists(t, cloned)
	})

	t.Run("clone failure", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		a := newApp(&stdout, &stderr)
		a.cloneRepo = func(string, io.Writer, *ConsoleLogger) (string, error) {
			return "", errors.New("failed to clone repository: authentication required")
		}

		code := a.execute([]string{url})
		assert.Equal(t, exitError, code)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "authentication required")
	})
}

func TestRunClipboardFallback(t *testing.T) {
	isolate(t)
	stubClipboard(t, func(string) error { return errors.New("exec: \"xclip\": executable file not found") })
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a\n"})

	code, stdout, stderr := runCLI(t, "-c", root)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "| 1 | a.go | go | 1 | 10 |\n")
	assert.Contains(t, stderr, "error writing to clipboard, printing instead")
}
