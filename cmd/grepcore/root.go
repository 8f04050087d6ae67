package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/coregx/grepcore/dispatch"
	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/pcreadapter"
	"github.com/spf13/cobra"
)

// Exit codes, grep-compatible: 0 when at least one match was printed, 1
// when the search ran cleanly but found nothing, 2 on any operational
// error (bad pattern, unreadable file, and so on).
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

// exitCode is set by runSearch and read by main after Execute returns
// without error.
var exitCode = exitNoMatch

var (
	patterns        []string
	caseInsensitive bool
	wordBoundary    bool
	invertMatch     bool
	fixedString     bool
	extended        bool
	perl            bool

	backendOverride string
	gpuBias         int
	shortPatternLen int
	longPatternLen  int
	minGPUSize      int64
	maxGPUSize      int64
)

var rootCmd = &cobra.Command{
	Use:   "grepcore [pattern] [file...]",
	Short: "grep-compatible line search across CPU SIMD and GPU backends",
	Long: `grepcore searches files (or stdin) for a pattern and prints
matching lines as path:line:text, choosing between CPU, Metal, and
Vulkan backends per workload size and pattern shape. The same pattern
and options always produce the same matches regardless of which
backend executes the search.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.Flags().StringArrayVarP(&patterns, "regexp", "e", nil, "pattern to search for (repeatable; union of all patterns)")
	rootCmd.Flags().BoolVarP(&caseInsensitive, "ignore-case", "i", false, "ignore case distinctions")
	rootCmd.Flags().BoolVarP(&wordBoundary, "word-regexp", "w", false, "match only whole words")
	rootCmd.Flags().BoolVarP(&invertMatch, "invert-match", "v", false, "select non-matching lines")
	rootCmd.Flags().BoolVarP(&fixedString, "fixed-strings", "F", false, "treat pattern as a literal string, not a regex")
	rootCmd.Flags().BoolVarP(&extended, "extended-regexp", "E", false, "use extended regex (ERE) syntax instead of basic (BRE)")
	rootCmd.Flags().BoolVarP(&perl, "perl-regexp", "P", false, "use PCRE syntax via the external PCRE adapter")

	rootCmd.Flags().StringVar(&backendOverride, "backend", "auto", "force a backend: auto, cpu, gpu, metal, vulkan")
	rootCmd.Flags().IntVar(&gpuBias, "gpu-bias", 0, "additive nudge toward (positive) or away from (negative) the GPU")
	rootCmd.Flags().IntVar(&shortPatternLen, "short-pattern-len", 4, "pattern length at/under which the short-pattern score bonus applies")
	rootCmd.Flags().IntVar(&longPatternLen, "long-pattern-len", 8, "pattern length at/over which the long-pattern score bonus applies")
	rootCmd.Flags().Int64Var(&minGPUSize, "min-gpu-size", 64*1024, "text size floor (bytes) below which the dispatcher always chooses CPU")
	rootCmd.Flags().Int64Var(&maxGPUSize, "max-gpu-size", 512*1024*1024, "text size ceiling (bytes) above which the dispatcher always chooses CPU")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runSearch(cmd *cobra.Command, args []string) error {
	pats := patterns
	files := args
	if len(pats) == 0 {
		if len(args) == 0 {
			return fmt.Errorf("no pattern given")
		}
		pats = []string{args[0]}
		files = args[1:]
	}

	opts := matchset.SearchOptions{
		CaseInsensitive: caseInsensitive,
		WordBoundary:    wordBoundary,
		InvertMatch:     invertMatch,
		FixedString:     fixedString,
		Extended:        extended,
		Perl:            perl,
	}

	cfg := dispatch.DefaultConfig()
	cfg.GPUBias = gpuBias
	cfg.ShortPatternLen = shortPatternLen
	cfg.LongPatternLen = longPatternLen
	cfg.MinGPUSize = uint64(minGPUSize)
	cfg.MaxGPUSize = uint64(maxGPUSize)
	if err := cfg.Validate(); err != nil {
		return err
	}
	applyBackendOverride(&cfg, backendOverride)

	dispatcher := dispatch.NewDispatcher(cfg)
	defer dispatcher.Close()

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()

	anyMatch := false
	if len(files) == 0 {
		text, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		matched, err := searchOne(out, "(standard input)", text, pats, opts, dispatcher)
		if err != nil {
			return err
		}
		anyMatch = anyMatch || matched
	} else {
		for _, path := range files {
			text, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			matched, err := searchOne(out, path, text, pats, opts, dispatcher)
			if err != nil {
				return err
			}
			anyMatch = anyMatch || matched
		}
	}

	if anyMatch {
		exitCode = exitMatch
	} else {
		exitCode = exitNoMatch
	}
	return nil
}

// searchOne runs pats over text (union semantics when len(pats) > 1)
// and writes matched lines as "path:line:text" to out.
func searchOne(out io.Writer, path string, text []byte, pats []string, opts matchset.SearchOptions, d *dispatch.Dispatcher) (bool, error) {
	var result matchset.SearchResult
	var err error

	if opts.Perl {
		result, err = searchPerl(text, pats, opts)
	} else if len(pats) == 1 {
		result, err = d.Search(dispatch.Request{
			Text:         text,
			Pattern:      []byte(pats[0]),
			Options:      opts,
			MultiPattern: false,
		})
	} else {
		result, err = matchset.UnionPatterns(text, len(pats), func(t []byte, idx int) (matchset.SearchResult, error) {
			return d.Search(dispatch.Request{
				Text:         t,
				Pattern:      []byte(pats[idx]),
				Options:      opts,
				MultiPattern: true,
			})
		})
	}
	if err != nil {
		return false, err
	}

	aggregated := matchset.Aggregate(text, result.Matches, true)
	for _, rec := range aggregated {
		line := lineBytes(text, int(rec.LineStart))
		fmt.Fprintf(out, "%s:%d:%s\n", path, rec.LineNum, line)
	}
	return len(aggregated) > 0, nil
}

func lineBytes(text []byte, lineStart int) []byte {
	end := lineStart
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return text[lineStart:end]
}

func searchPerl(text []byte, pats []string, opts matchset.SearchOptions) (matchset.SearchResult, error) {
	if len(pats) == 1 {
		return searchPerlOne(text, pats[0], opts)
	}
	return matchset.UnionPatterns(text, len(pats), func(t []byte, idx int) (matchset.SearchResult, error) {
		return searchPerlOne(t, pats[idx], opts)
	})
}

func searchPerlOne(text []byte, pattern string, opts matchset.SearchOptions) (matchset.SearchResult, error) {
	eng, err := pcreadapter.Compile([]byte(pattern), opts)
	if err != nil {
		return matchset.SearchResult{}, err
	}
	defer eng.Close()
	return eng.Search(text)
}

// applyBackendOverride forces the dispatcher's hard-rule gates so that a
// requested backend always wins: "cpu" by pinning the size ceiling below
// any real workload, "gpu"/"metal"/"vulkan" by pinning the floor to one byte
// and the bias to its maximum so Decide's score check always passes.
// "auto" (the default) leaves cfg untouched.
func applyBackendOverride(cfg *dispatch.Config, backend string) {
	switch backend {
	case "cpu":
		cfg.MaxGPUSize = 0
	case "gpu", "metal", "vulkan":
		cfg.MinGPUSize = 1
		cfg.GPUBias = 20
	}
}
