package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/stampo/internal/utils"
)

// discoverSourceFiles finds all processable files among the given paths.
// Directories are walked (optionally recursively); plain files are taken as
// given if their extension is recognized. The result is sorted for a
// deterministic work queue.
func discoverSourceFiles(args []string, cfg *Config) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			found, err := discoverInDirectory(arg, cfg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		} else if isCandidate(arg, cfg) {
			files = append(files, arg)
		}
	}

	sort.Strings(files)
	return files, nil
}

// discoverInDirectory walks a directory collecting candidate files.
func discoverInDirectory(dir string, cfg *Config) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !cfg.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if isCandidate(path, cfg) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// isCandidate applies the extension filter and the include/exclude patterns.
func isCandidate(path string, cfg *Config) bool {
	if !utils.IsSupportedImage(path) && !(cfg.ExpandPDFs && utils.IsPDF(path)) {
		return false
	}
	if matchesAnyPattern(path, cfg.ExcludePatterns) {
		return false
	}
	if len(cfg.IncludePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, cfg.IncludePatterns)
}

// matchesAnyPattern checks the file's base name against glob patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
