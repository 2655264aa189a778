package skill

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var defaultContent embed.FS

// LoadClassFromBytes parses a single class file.
//
// Precondition: data must be valid YAML for a single Class.
// Postcondition: Returns the parsed Class or an error.
func LoadClassFromBytes(data []byte) (*Class, error) {
	var cls Class
	if err := yaml.Unmarshal(data, &cls); err != nil {
		return nil, fmt.Errorf("parsing class YAML: %w", err)
	}
	return &cls, nil
}

// LoadCatalogFS reads every *.yaml file in dir of fsys into a Catalog.
//
// Postcondition: Returns a validated Catalog or the first error encountered.
func LoadCatalogFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	var classes []*Class
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		cls, err := LoadClassFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		classes = append(classes, cls)
	}
	return NewCatalog(classes)
}

// LoadCatalogDir reads a catalog from a directory on disk.
func LoadCatalogDir(dir string) (*Catalog, error) {
	return LoadCatalogFS(os.DirFS(dir), ".")
}

// DefaultCatalog returns the catalog built from the embedded content.
//
// Postcondition: Panics if the embedded content is invalid.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalogFS(defaultContent, "content")
	if err != nil {
		panic("skill: embedded catalog is invalid: " + err.Error())
	}
	return c
}
