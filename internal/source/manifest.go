// Package source locates, reads and decodes the ClearVue source extracts into
// typed records.
package source

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fincal/internal/model"
)

// Manifest maps each table to the file that holds it, relative to the source root.
type Manifest struct {
	Files map[model.Table]string `yaml:"files"`
}

// DefaultFileName is the file a table is read from when the manifest does not name one.
func DefaultFileName(t model.Table) string {
	return string(t) + ".xlsx"
}

// LoadManifest reads a YAML manifest. An empty path returns an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	m := &Manifest{Files: map[model.Table]string{}}
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read manifest %s", path)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, eris.Wrapf(err, "source: parse manifest %s", path)
	}
	if m.Files == nil {
		m.Files = map[model.Table]string{}
	}

	known := map[model.Table]bool{}
	for _, t := range model.AllTables() {
		known[t] = true
	}
	for t, f := range m.Files {
		if !known[t] {
			return nil, eris.Errorf("source: manifest names unknown table %q", t)
		}
		if strings.TrimSpace(f) == "" {
			return nil, eris.Errorf("source: manifest has empty file for table %q", t)
		}
	}
	return m, nil
}

// FileFor returns the file name for t.
func (m *Manifest) FileFor(t model.Table) string {
	if m != nil {
		if f, ok := m.Files[t]; ok {
			return f
		}
	}
	return DefaultFileName(t)
}
