package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"
)

// versionWidth matches the zero padded prefix of the files in migrations/
const versionWidth = 6

var (
	upTemplate = template.Must(template.New("up").Parse(`-- Migration: {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

-- Money columns are DECIMAL(18,4), calendar dates are DATE, ids are UUID.
-- Ledger tables are append-only: add columns, never rewrite posted rows.

`))
	downTemplate = template.Must(template.New("down").Parse(`-- Rollback: {{.Name}}
-- Created: {{.Timestamp}}

`))
)

// NewFile is a freshly scaffolded migration pair
type NewFile struct {
	Migration
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration scaffolds the next numbered up/down pair in dir
func CreateMigration(dir, name, description string) (*NewFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	catalog, err := Catalog(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	if i := slices.IndexFunc(catalog, func(m Migration) bool { return m.Name == slug }); i >= 0 {
		return nil, fmt.Errorf("migration %s already exists", catalog[i])
	}

	nf := &NewFile{
		Migration:   Migration{Version: Latest(catalog) + 1, Name: slug, HasDown: true},
		Description: strings.TrimSpace(description),
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	nf.UpPath = filepath.Join(dir, nf.Base()+".up.sql")
	nf.DownPath = filepath.Join(dir, nf.Base()+".down.sql")

	if err := writeTemplate(nf.UpPath, upTemplate, nf); err != nil {
		return nil, err
	}
	if err := writeTemplate(nf.DownPath, downTemplate, nf); err != nil {
		_ = os.Remove(nf.UpPath)
		return nil, err
	}
	return nf, nil
}

func writeTemplate(path string, tmpl *template.Template, data *NewFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitizeName lower-cases name and keeps letters, digits and single
// underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}
