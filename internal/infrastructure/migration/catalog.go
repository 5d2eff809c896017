package migration

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

// Migration is one numbered schema change in a migrations directory
type Migration struct {
	Version uint
	Name    string
	HasDown bool
}

// Base returns the file name shared by the up and down scripts
func (m Migration) Base() string {
	return fmt.Sprintf("%0*d_%s", versionWidth, m.Version, m.Name)
}

func (m Migration) String() string {
	return m.Base()
}

// Catalog lists the migrations in fsys by version. Files that do not look
// like NNNNNN_name.{up,down}.sql are ignored, as are rollbacks without an up
// script. Two names sharing a version are an error.
func Catalog(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := make(map[uint]*Migration)
	ups := make(map[uint]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, up, ok := parseFileName(entry.Name())
		if !ok {
			continue
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("version %d is used by %s and %s", version, m.Name, name)
		}
		if up {
			ups[version] = true
		} else {
			m.HasDown = true
		}
	}

	out := make([]Migration, 0, len(ups))
	for version := range ups {
		out = append(out, *byVersion[version])
	}
	slices.SortFunc(out, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
	return out, nil
}

// parseFileName splits 000004_create_collections.up.sql into its parts
func parseFileName(file string) (version uint, name string, up, ok bool) {
	base, found := strings.CutSuffix(file, ".up.sql")
	up = found
	if !found {
		if base, found = strings.CutSuffix(file, ".down.sql"); !found {
			return 0, "", false, false
		}
	}
	prefix, name, found := strings.Cut(base, "_")
	if !found || name == "" {
		return 0, "", false, false
	}
	n, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil || n == 0 {
		return 0, "", false, false
	}
	return uint(n), name, up, true
}

// Check reports what would stop the ledger schema from migrating cleanly in
// both directions: missing rollbacks and gaps in the numbering.
func Check(catalog []Migration) error {
	var errs []error
	for i, m := range catalog {
		if !m.HasDown {
			errs = append(errs, fmt.Errorf("%s has no down script", m))
		}
		if want := uint(i + 1); m.Version != want {
			errs = append(errs, fmt.Errorf("%s is out of sequence, expected version %d", m, want))
		}
	}
	return errors.Join(errs...)
}

// Pending returns the migrations after version current
func Pending(catalog []Migration, current uint) []Migration {
	i, _ := slices.BinarySearchFunc(catalog, current+1, func(m Migration, v uint) int {
		return cmp.Compare(m.Version, v)
	})
	return catalog[i:]
}

// Latest returns the highest version in catalog, 0 when it is empty
func Latest(catalog []Migration) uint {
	if len(catalog) == 0 {
		return 0
	}
	return catalog[len(catalog)-1].Version
}
