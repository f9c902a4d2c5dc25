package tblogger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

const versionPrefix = "version_"

func versionDir(v int) string {
	return fmt.Sprintf("%s%d", versionPrefix, v)
}

// nextVersion returns one more than the highest version_<n> directory in
// root, or 0 when root has none.
func nextVersion(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list versions in %s: %w", root, err)
	}

	next := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), versionPrefix) {
			continue
		}

		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), versionPrefix))
		if err != nil || n < 0 {
			continue
		}

		next = max(next, n+1)
	}

	return next, nil
}
