package main

// Config holds the resolved settings for a single run.
type Config struct {
	TargetDir     string
	Include       extensionMatcher
	Exclude       extensionMatcher
	ExcludeHidden bool
	Verbose       bool

	UseGitignore  bool
	OutputFile    string
	Clipboard     bool
	PDFFile       string
	CountTokens   bool
	Tokenizer     string
	TokenModel    string
	TokenFile     string
	LanguagesFile string
}

// DiscoveredFile is a regular file found under the target directory.
type DiscoveredFile struct {
	AbsPath  string
	RelPath  string // slash-separated, relative to the target
	IsHidden bool
}

// SkipReason explains why a discovered file was left out of the document.
type SkipReason string

const (
	SkipHidden      SkipReason = "hidden-file"
	SkipNotIncluded SkipReason = "not-in-include-filter"
	SkipExcluded    SkipReason = "matched-exclude-filter"
	SkipNonText     SkipReason = "non-text-file"
)

// Classification is the classifier's verdict on one discovered file.
// Reason is empty when Kept is true.
type Classification struct {
	File   DiscoveredFile
	Kept   bool
	Reason SkipReason
}

// FileRecord holds everything the renderer needs about a kept file.
type FileRecord struct {
	ID        int
	RelPath   string
	Extension string
	Lines     int
	Size      int64
	Language  string
	Content   []byte
}

// Document is the finalized, ordered input to the renderer.
type Document struct {
	Records     []FileRecord
	Skipped     []Classification
	Verbose     bool
	ShowTokens  bool
	TotalTokens int
}
