// Package source discovers input documents and reads them in chunks.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Find walks root and returns every file whose base name matches one of
// the include globs and none of the exclude globs, sorted for a stable
// processing order. A root that is itself a matching file yields a
// single-element list.
func Find(root string, include, exclude []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		if matches(filepath.Base(root), include) && !matches(filepath.Base(root), exclude) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if matches(name, include) && !matches(name, exclude) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

func matches(name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, err := filepath.Match(pat, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Chunks reads a file and splits it into pieces of at most chunkSize
// bytes. Splits prefer the last newline inside the window so sections are
// not cut mid-line. chunkSize <= 0 means no splitting.
func Chunks(path string, chunkSize int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	content := string(data)
	if chunkSize <= 0 || len(content) <= chunkSize {
		return []string{content}, nil
	}

	var chunks []string
	for len(content) > chunkSize {
		cut := strings.LastIndexByte(content[:chunkSize], '\n')
		if cut <= 0 {
			cut = chunkSize
		}
		chunks = append(chunks, content[:cut])
		content = strings.TrimLeft(content[cut:], "\n")
	}
	if content != "" {
		chunks = append(chunks, content)
	}
	return chunks, nil
}
