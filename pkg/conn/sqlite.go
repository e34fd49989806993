package conn

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLite opens a file-backed or in-memory SQLite database. It backs
// local runs and tests where a PostgreSQL instance is not available.
func NewSQLite(path string, config *gorm.Config) (*Client, error) {
	if config == nil {
		config = &gorm.Config{}
	}
	db, err := gorm.Open(sqlite.Open(path), config)
	if err != nil {
		return nil, err
	}
	return &Client{opt: Option{ConnString: path}, db: db}, nil
}
