package factory

import (
	"strings"

	"github.com/bookit-dev/bookit/internal/store"
	"github.com/bookit-dev/bookit/internal/store/postgres"
	"github.com/bookit-dev/bookit/internal/store/sqlite"
)

// New dispatches on the DSN: empty or "memory" selects the in-process store,
// postgres:// selects PostgreSQL, anything else is treated as a SQLite path.
func New(dsn string) (store.Store, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == "memory":
		return store.NewMemory(), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return postgres.New(dsn)
	default:
		return sqlite.New(dsn)
	}
}
