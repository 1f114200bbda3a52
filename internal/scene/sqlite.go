package scene

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/agentic-research/fileman/api"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	path TEXT PRIMARY KEY,
	type TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	locked INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS parms (
	node_path TEXT NOT NULL,
	ord INTEGER NOT NULL,
	name TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT '',
	string_type TEXT NOT NULL DEFAULT '',
	file_type TEXT NOT NULL DEFAULT '',
	hidden INTEGER NOT NULL DEFAULT 0,
	value TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (node_path, name)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_parms_file_type ON parms(file_type);

CREATE TABLE IF NOT EXISTS variables (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// OpenSQLite reads a scene snapshot database into a new MemoryStore.
// The database is opened read-only; edits stay in memory until SaveSQLite.
func OpenSQLite(dbPath string) (*MemoryStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	sc, err := readScene(db)
	if err != nil {
		return nil, fmt.Errorf("read scene %s: %w", dbPath, err)
	}
	return NewMemoryStoreFromScene(sc)
}

func readScene(db *sql.DB) (*api.Scene, error) {
	sc := &api.Scene{Variables: map[string]string{}}

	var frame int
	err := db.QueryRow("SELECT CAST(value AS INTEGER) FROM meta WHERE key = 'frame'").Scan(&frame)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("query meta: %w", err)
	default:
		sc.Frame = frame
	}
	_ = db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&sc.Version) // optional

	vrows, err := db.Query("SELECT name, value FROM variables")
	if err != nil {
		return nil, fmt.Errorf("query variables: %w", err)
	}
	for vrows.Next() {
		var k, v string
		if err := vrows.Scan(&k, &v); err != nil {
			_ = vrows.Close()
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		sc.Variables[k] = v
	}
	if err := vrows.Close(); err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT path, type, icon, locked FROM nodes ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var n api.Node
		var locked int
		if err := rows.Scan(&n.Path, &n.Type, &n.Icon, &locked); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Locked = locked != 0
		index[n.Path] = len(sc.Nodes)
		sc.Nodes = append(sc.Nodes, n)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	prows, err := db.Query(`SELECT node_path, name, label, kind, string_type, file_type, hidden, value
		FROM parms ORDER BY node_path, ord`)
	if err != nil {
		return nil, fmt.Errorf("query parms: %w", err)
	}
	defer func() { _ = prows.Close() }() // safe to ignore
	for prows.Next() {
		var nodePath string
		var p api.Parm
		var hidden int
		if err := prows.Scan(&nodePath, &p.Name, &p.Label, &p.Kind, &p.StringType, &p.FileType, &hidden, &p.Value); err != nil {
			return nil, fmt.Errorf("scan parm: %w", err)
		}
		p.Hidden = hidden != 0
		i, ok := index[nodePath]
		if !ok {
			return nil, fmt.Errorf("parm %s references unknown node %s", p.Name, nodePath)
		}
		sc.Nodes[i].Parms = append(sc.Nodes[i].Parms, p)
	}
	return sc, prows.Err()
}

// SaveSQLite writes the store's snapshot to dbPath, replacing any previous
// snapshot in that file.
func SaveSQLite(dbPath string, s *MemoryStore) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	sc := s.Snapshot()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // safe to ignore (no-op if committed)

	for _, table := range []string{"parms", "nodes", "variables", "meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	nodeStmt, err := tx.Prepare("INSERT INTO nodes (path, type, icon, locked) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare nodes insert: %w", err)
	}
	defer func() { _ = nodeStmt.Close() }() // safe to ignore

	parmStmt, err := tx.Prepare(`INSERT INTO parms
		(node_path, ord, name, label, kind, string_type, file_type, hidden, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare parms insert: %w", err)
	}
	defer func() { _ = parmStmt.Close() }() // safe to ignore

	for _, n := range sc.Nodes {
		if _, err := nodeStmt.Exec(n.Path, n.Type, n.Icon, boolInt(n.Locked)); err != nil {
			return fmt.Errorf("insert node %s: %w", n.Path, err)
		}
		for i, p := range n.Parms {
			if _, err := parmStmt.Exec(n.Path, i, p.Name, p.Label, p.Kind, p.StringType,
				p.FileType, boolInt(p.Hidden), p.Value); err != nil {
				return fmt.Errorf("insert parm %s/%s: %w", n.Path, p.Name, err)
			}
		}
	}
	for k, v := range sc.Variables {
		if _, err := tx.Exec("INSERT INTO variables (name, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert variable %s: %w", k, err)
		}
	}
	if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES ('frame', ?), ('version', ?)",
		fmt.Sprint(sc.Frame), sc.Version); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
