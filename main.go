package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is the application version, set via ldflags.
var version = "dev"

// app carries the state of one invocation. Everything that touches the
// outside world goes through its writers so run can be driven from tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	v      *viper.Viper
	log    *ConsoleLogger

	// flags that are not routed through viper
	cfgFile    string
	directory  string
	outputFile string
	pdfFile    string

	helpShown bool

	isText       textDetector
	newTokenizer func(kind, model, file string, log *ConsoleLogger) (Tokenizer, error)
	cloneRepo    func(url string, progress io.Writer, log *ConsoleLogger) (string, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:       stdout,
		stderr:       stderr,
		v:            viper.New(),
		log:          NewConsoleLogger(stderr, false),
		isText:       detectText,
		newTokenizer: newTokenizer,
		cloneRepo:    cloneGitRepo,
	}
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codepack [flags] [DIR]",
		Short: "Pack a directory tree into one Markdown document for LLM context.",
		Long: `codepack walks a directory, filters files by extension and visibility,
and prints a single Markdown document: an inventory table followed by every
kept file in a fenced code block tagged with its language.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          a.runPack,
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	defaultHelp := cmd.HelpFunc()
	cmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		a.helpShown = true
		defaultHelp(c, args)
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &invalidOptionError{err: err}
	})

	flags := cmd.Flags()

	// Filtering
	flags.StringP("include", "i", "", "Only include these extensions (comma-separated, e.g. go,py)")
	flags.StringP("exclude", "e", "", "Exclude these extensions (comma-separated)")
	flags.StringVarP(&a.directory, "directory", "d", "", "Directory to pack (default is the current directory)")
	flags.BoolP("exclude-hidden", "H", false, "Skip hidden files and directories")
	flags.BoolP("gitignore", "g", false, "Skip paths matched by the target's .gitignore")
	flags.BoolP("verbose", "v", false, "Annotate skipped files in the output and log progress to stderr")

	// Output
	flags.StringVarP(&a.outputFile, "file", "f", "", "Save output to the specified file instead of stdout")
	flags.BoolP("clipboard", "c", false, "Copy output to the clipboard instead of stdout")
	flags.StringVar(&a.pdfFile, "pdf", "", "Also save the document as a PDF")

	// Token counting
	flags.BoolP("tokens", "t", false, "Report an estimated token count in the inventory")
	flags.String("tokenizer", tokenizerTiktoken, "Tokenizer to use: tiktoken or huggingface")
	flags.String("model", "", "Model name for the tokenizer (e.g. gpt-4o, gpt2)")
	flags.String("tokenizer-file", "", "Path to a local huggingface tokenizer.json")

	// Languages and config
	flags.String("languages", "", "YAML file mapping extensions to code-fence language tags")
	flags.StringVar(&a.cfgFile, "config", "", "Config file (default is $HOME/.config/codepack/config.toml)")

	for key, flag := range map[string]string{
		"include":        "include",
		"exclude":        "exclude",
		"exclude_hidden": "exclude-hidden",
		"gitignore":      "gitignore",
		"verbose":        "verbose",
		"clipboard":      "clipboard",
		"tokens":         "tokens",
		"tokenizer":      "tokenizer",
		"model":          "model",
		"tokenizer_file": "tokenizer-file",
		"languages":      "languages",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

// initConfig reads the config file and CODEPACK_* environment variables.
// Precedence is flag > env > file > default.
func (a *app) initConfig() error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			a.log.Debugf("no home directory, skipping config file lookup: %v", err)
		} else {
			a.v.AddConfigPath(filepath.Join(home, ".config", "codepack"))
		}
		a.v.SetConfigName("config")
		a.v.SetConfigType("toml")
	}

	a.v.SetEnvPrefix("CODEPACK")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			a.log.Debugf("no config file found, using defaults and flags")
			return nil
		}
		return &ConfigError{Msg: "error reading config file", Err: err}
	}
	a.log.Debugf("using config file %s", a.v.ConfigFileUsed())
	return nil
}

// resolveConfig merges flags, environment and config file into a Config and
// enforces the invariants that must hold before discovery starts.
func (a *app) resolveConfig(cmd *cobra.Command, args []string) (Config, error) {
	cfg := Config{
		Include:       compileExtensions(a.listValue("include")),
		Exclude:       compileExtensions(a.listValue("exclude")),
		ExcludeHidden: a.v.GetBool("exclude_hidden"),
		Verbose:       a.v.GetBool("verbose"),
		UseGitignore:  a.v.GetBool("gitignore"),
		OutputFile:    a.outputFile,
		Clipboard:     a.v.GetBool("clipboard"),
		PDFFile:       a.pdfFile,
		CountTokens:   a.v.GetBool("tokens"),
		Tokenizer:     a.v.GetString("tokenizer"),
		TokenModel:    a.v.GetString("model"),
		TokenFile:     a.v.GetString("tokenizer_file"),
		LanguagesFile: a.v.GetString("languages"),
	}

	if !cfg.Include.Empty() && !cfg.Exclude.Empty() {
		return cfg, configErrorf("cannot use -i (include) and -e (exclude) together")
	}
	if cfg.CountTokens && !validTokenizer(cfg.Tokenizer) {
		return cfg, configErrorf("unsupported tokenizer %q, use %q or %q", cfg.Tokenizer, tokenizerTiktoken, tokenizerHuggingFace)
	}

	cfg.TargetDir = "."
	switch {
	case cmd.Flags().Changed("directory"):
		cfg.TargetDir = a.directory
		if len(args) > 0 {
			a.log.Warnf("ignoring positional arguments %v, directory already set with -d", args)
		}
	case len(args) == 1:
		cfg.TargetDir = args[0]
	case len(args) > 1:
		a.log.Warnf("ignoring positional arguments %v, expected at most one directory", args)
	}
	return cfg, nil
}

// listValue reads a comma-separated list. Flags, environment variables and
// TOML strings are taken as typed; a TOML array is joined with commas.
func (a *app) listValue(key string) string {
	switch v := a.v.Get(key).(type) {
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprint(item))
		}
		return strings.Join(items, ",")
	case []string:
		return strings.Join(v, ",")
	default:
		return a.v.GetString(key)
	}
}

func (a *app) runPack(cmd *cobra.Command, args []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		a.log.SetVerbose(true)
	}
	if err := a.initConfig(); err != nil {
		return err
	}

	cfg, err := a.resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	a.log.SetVerbose(cfg.Verbose)

	langs, err := loadLanguageTable(cfg.LanguagesFile)
	if err != nil {
		return &ConfigError{Msg: "invalid language table", Err: err}
	}

	if isGitURL(cfg.TargetDir) {
		var progress io.Writer
		if cfg.Verbose {
			progress = a.stderr
		}
		tempDir, err := a.cloneRepo(cfg.TargetDir, progress, a.log)
		if err != nil {
			return err
		}
		defer func() {
			a.log.Debugf("cleaning up temporary directory %s", tempDir)
			_ = os.RemoveAll(tempDir)
		}()
		cfg.TargetDir = tempDir
	}

	if info, err := os.Stat(cfg.TargetDir); err != nil || !info.IsDir() {
		return configErrorf("directory not found: %s", cfg.TargetDir)
	}

	doc, err := a.buildDocument(cfg, langs)
	if err != nil {
		return err
	}

	if err := writeOutput(renderDocument(doc), cfg, a.stdout, a.log); err != nil {
		return err
	}
	if cfg.PDFFile != "" {
		if err := generatePDF(doc, cfg.PDFFile, a.log); err != nil {
			return err
		}
		a.log.Infof("saved PDF to %s", cfg.PDFFile)
	}
	return nil
}

// buildDocument runs discovery, classification and metadata extraction to
// completion, so every ID is fixed before anything is rendered.
func (a *app) buildDocument(cfg Config, langs *LanguageTable) (Document, error) {
	a.log.Debugf("packing directory %s (include %v, exclude %v)",
		cfg.TargetDir, cfg.Include.Extensions(), cfg.Exclude.Extensions())

	files, err := discoverFiles(cfg.TargetDir, discoverOptions{
		ExcludeHidden: cfg.ExcludeHidden,
		UseGitignore:  cfg.UseGitignore,
	}, a.log)
	if err != nil {
		return Document{}, err
	}

	kept, skipped, err := classifyFiles(files, newFileClassifier(cfg, a.isText))
	if err != nil {
		return Document{}, err
	}
	a.log.Debugf("discovered %d files: %d kept, %d skipped", len(files), len(kept), len(skipped))

	records, err := extractMetadata(kept, langs)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Records: records,
		Skipped: skipped,
		Verbose: cfg.Verbose,
	}

	if cfg.CountTokens && len(records) > 0 {
		tk, err := a.newTokenizer(cfg.Tokenizer, cfg.TokenModel, cfg.TokenFile, a.log)
		if err != nil {
			a.log.Warnf("token counting disabled: %v", err)
		} else {
			defer tk.Close()
			doc.ShowTokens = true
			doc.TotalTokens = countTokens(doc.Records, tk)
		}
	}
	return doc, nil
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).execute(args)
}

func (a *app) execute(args []string) int {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()

	var optErr *invalidOptionError
	switch {
	case err == nil && a.helpShown:
		return exitUsage
	case err == nil:
		return exitOK
	case errors.As(err, &optErr):
		fmt.Fprintln(a.stderr, err)
		fmt.Fprint(a.stderr, cmd.UsageString())
		return exitUsage
	default:
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitError
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
