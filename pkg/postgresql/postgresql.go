package postgresql

import (
	"database/sql"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uniclub/uc-points/config"
)

var (
	once sync.Once
	db   *sql.DB
)

func GetDatabase() *sql.DB {
	once.Do(func() {
		c := config.Get()

		var err error
		db, err = sql.Open("pgx", c.PostgreSQL.DSN)
		if err != nil {
			panic(err)
		}

		db.SetMaxOpenConns(c.PostgreSQL.MaxOpenConns)
		db.SetMaxIdleConns(c.PostgreSQL.MaxIdleConns)
	})

	return db
}

// Migrate applies pending schema migrations. ErrNoChange is not an error.
func Migrate() error {
	c := config.Get()

	m, err := migrate.New(c.PostgreSQL.MigrationSource, c.PostgreSQL.DSN)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
