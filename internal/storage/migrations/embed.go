// Package migrations embeds and applies the schema for every storage backend.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// PostgresFS embeds the document table DDL.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the swap archive DDL.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

type script struct {
	name string
	sql  string
}

// loadScripts reads dir/*.sql from fsys sorted by file name.
func loadScripts(fsys fs.FS, dir string) ([]script, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	scripts := make([]script, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		scripts = append(scripts, script{name: name, sql: string(data)})
	}
	return scripts, nil
}
