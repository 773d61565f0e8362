// Package assets embeds the default keyword pool and the SQL migrations.
package assets

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed keywords.txt
var keywordsFile []byte

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Keywords returns the raw embedded keyword file.
func Keywords() []byte { return keywordsFile }

// Migration is one embedded SQL script.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns every embedded script in lexical order.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Name: e.Name(), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
