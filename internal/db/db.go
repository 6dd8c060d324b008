package db

import "database/sql"

// DB wraps the shared sql handle used by the local directory.
type DB struct {
	*sql.DB
}
