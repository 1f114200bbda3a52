package scene

import (
	"fmt"
	"path/filepath"
)

// Load opens a scene snapshot, choosing the reader by file extension.
func Load(path string) (*MemoryStore, error) {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		return OpenSQLite(path)
	case ".json":
		return ReadJSONFile(path)
	default:
		return nil, fmt.Errorf("unsupported scene file %s (want .json or .db)", path)
	}
}

// Save writes a scene snapshot, choosing the writer by file extension.
func Save(path string, s *MemoryStore) error {
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		return SaveSQLite(path, s)
	case ".json":
		return WriteJSONFile(path, s)
	default:
		return fmt.Errorf("unsupported scene file %s (want .json or .db)", path)
	}
}
