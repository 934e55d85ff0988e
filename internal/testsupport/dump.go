package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// DumpProduct describes one product directory in a synthetic dump tree.
type DumpProduct struct {
	GOGID       int64
	ProductJSON string
	PricesJSON  string
}

// WriteDumpTree lays out a gogdb-style dump under a temp directory:
// root/products/<gog_id>/product.json plus an optional prices.json per
// product. An empty ProductJSON omits product.json entirely.
func WriteDumpTree(t testing.TB, products []DumpProduct) string {
	t.Helper()

	root := t.TempDir()
	for _, product := range products {
		dir := filepath.Join(root, "products", strconv.FormatInt(product.GOGID, 10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if product.ProductJSON != "" {
			writeDumpFile(t, filepath.Join(dir, "product.json"), product.ProductJSON)
		}
		if product.PricesJSON != "" {
			writeDumpFile(t, filepath.Join(dir, "prices.json"), product.PricesJSON)
		}
	}
	return root
}

func writeDumpFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
