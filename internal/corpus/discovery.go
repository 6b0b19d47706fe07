package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", apperrors.ErrNotDirectory, root)
		}
		return fmt.Errorf("%w: %s: %w", apperrors.ErrNotDirectory, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", apperrors.ErrNotDirectory, root)
	}
	return nil
}

// discover lists every regular file under root, depth first with an explicit
// stack. Entries whose name starts with "." are skipped, which also keeps
// the cache file out of the corpus. The result is sorted.
func discover(root string) ([]string, error) {
	var files []string
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrDiscovery, dir, err)
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			switch {
			case entry.IsDir():
				stack = append(stack, path)
			case entry.Type().IsRegular():
				files = append(files, path)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// partition deals paths round-robin into n slices.
func partition(paths []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	parts := make([][]string, n)
	for i, path := range paths {
		parts[i%n] = append(parts[i%n], path)
	}
	return parts
}
