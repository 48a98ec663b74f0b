package sqldb

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// RawSQLStore - statements by "group.name", safe for concurrent use
type RawSQLStore struct {
	mu    sync.RWMutex
	stmts map[string]string
}

func NewRawStore() *RawSQLStore {
	return &RawSQLStore{stmts: make(map[string]string)}
}

func (s *RawSQLStore) Set(key string, rawStmt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stmts[key] = rawStmt
}

func (s *RawSQLStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stmt, exists := s.stmts[key]
	return stmt, exists
}

func (s *RawSQLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stmts)
}

type StoreGroupedStmtKey struct {
	Group    string
	StmtName string
}

func (k StoreGroupedStmtKey) String() string {
	return k.Group + "." + k.StmtName
}

type GroupFS struct {
	Group string
	FS    fs.FS
}

var (
	registryMu       sync.Mutex
	rawStoreRegistry []GroupFS
)

// RegisterGroup registers fsys, whose `sql` dir holds the group's statements.
// Call it from an init func of the package that embeds them.
func RegisterGroup(fsys fs.FS, group string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, g := range rawStoreRegistry {
		if g.Group == group {
			return
		}
	}
	rawStoreRegistry = append(rawStoreRegistry, GroupFS{FS: fsys, Group: group})
}

// LoadRawStmtsToStore fills store from every registered group. A file named
// {name}.{dbtype} is a dialect override and wins over {name}.sql, whose `?`
// placeholders are converted to placeholderPrefix.
func LoadRawStmtsToStore(store *RawSQLStore, dbtype string, placeholderPrefix byte) error {
	registryMu.Lock()
	groups := append([]GroupFS(nil), rawStoreRegistry...)
	registryMu.Unlock()

	for _, groupFS := range groups {
		files, err := fs.ReadDir(groupFS.FS, "sql")
		if err != nil {
			return fmt.Errorf("failed to read `sql` dir of group %s. %w", groupFS.Group, err)
		}
		dialect := make(map[string]bool)
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			filename := f.Name()
			ext := path.Ext(filename)
			name := strings.TrimSuffix(filename, ext)
			ext = strings.TrimPrefix(ext, ".")
			if ext != dbtype && ext != "sql" {
				continue
			}
			data, err := fs.ReadFile(groupFS.FS, path.Join("sql", filename))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", filename, err)
			}
			key := StoreGroupedStmtKey{Group: groupFS.Group, StmtName: name}.String()
			switch {
			case ext == dbtype:
				// exact matching file extension -> use it as-is for dialects
				store.Set(key, string(data))
				dialect[key] = true
			case !dialect[key]:
				// standard SQL with `?` (static) and `??` (dynamic) placeholders
				store.Set(key, ReplaceStaticPlaceholders(string(data), placeholderPrefix))
			}
		}
	}
	return nil
}
