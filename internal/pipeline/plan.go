package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/photofilter/internal/imageio"
	"github.com/MeKo-Tech/photofilter/internal/worker"
)

// inputExtensions are the file extensions picked up from directories.
var inputExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsImagePath reports whether path has a decodable image extension.
func IsImagePath(path string) bool {
	return inputExtensions[strings.ToLower(filepath.Ext(path))]
}

// Plan expands inputs (files or directories, the latter non-recursively)
// into tasks writing to outputDir. Output names keep the input base name
// with the export format's extension. Duplicate inputs are dropped and
// tasks are sorted by input path.
func Plan(inputs []string, outputDir string, format imageio.Format) ([]worker.Task, error) {
	seen := make(map[string]bool)
	var files []string

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("failed to stat input %s: %w", in, err)
		}
		if !info.IsDir() {
			if !seen[in] {
				seen[in] = true
				files = append(files, in)
			}
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("failed to read input dir %s: %w", in, err)
		}
		for _, e := range entries {
			if e.IsDir() || !IsImagePath(e.Name()) {
				continue
			}
			path := filepath.Join(in, e.Name())
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)

	tasks := make([]worker.Task, 0, len(files))
	outputs := make(map[string]string, len(files))
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		out := filepath.Join(outputDir, base+format.Extension())
		if prev, ok := outputs[out]; ok {
			return nil, fmt.Errorf("inputs %s and %s both map to %s", prev, f, out)
		}
		outputs[out] = f
		tasks = append(tasks, worker.Task{Input: f, Output: out})
	}
	return tasks, nil
}
