package gogdb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var dumpRootPattern = regexp.MustCompile(`^gogdb_\d{4}-\d{2}-\d{2}$`)

// FindDumpRoot locates the newest extracted dump under dumpDir: a directory
// named gogdb_YYYY-MM-DD containing a products subdirectory. Extraction
// roots whose products directory is missing are passed over, so a botched
// extraction never shadows an older usable dump.
func FindDumpRoot(dumpDir string) (string, error) {
	entries, err := os.ReadDir(dumpDir)
	if err != nil {
		return "", fmt.Errorf("read dump directory %s: %w", dumpDir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() && dumpRootPattern.MatchString(entry.Name()) {
			candidates = append(candidates, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(candidates)))

	for _, name := range candidates {
		root := filepath.Join(dumpDir, name)
		if info, err := os.Stat(filepath.Join(root, "products")); err == nil && info.IsDir() {
			return root, nil
		}
	}
	return "", fmt.Errorf("no extracted dump with a products directory under %s", dumpDir)
}
