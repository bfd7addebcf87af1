package database

import (
	"database/sql"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/maendeleo/core"
	appfs "github.com/trezcool/maendeleo/fs"
)

const migrationsDir = "migrations"

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open(conf.Database.Engine, u.String())
}

func Open(conf *core.Config) (*sql.DB, error) {
	return open(conf.Database.Name, false, conf)
}

// Connect opens the app database and waits for it to be ready.
func Connect(conf *core.Config) (*sqlx.DB, error) {
	return connect(conf.Database.Name, false, conf)
}

func connect(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	sqlDB, err := open(dbName, admin, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db := sqlx.NewDb(sqlDB, conf.Database.Engine)
	if err = ping(db, pingAttempts); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

const (
	pingAttempts = 30
	pingBackoff  = 100 * time.Millisecond
)

// ping retries until the server answers, waiting one more backoff step after each failure.
func ping(db *sqlx.DB, attempts int) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		if i < attempts {
			time.Sleep(time.Duration(i) * pingBackoff)
		}
	}
	return errors.Wrapf(err, "no answer after %d attempts", attempts)
}

// CreateIfNotExist creates the app role (as the admin user) and then the app database (as the app role).
// Both steps are skipped when what they create already exists.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.User != "" {
		err := withMaintenanceDB(true, conf, func(db *sqlx.DB) error {
			return ensureRole(db, conf.Database.User, conf.Database.Password)
		})
		if err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}

	err := withMaintenanceDB(false, conf, func(db *sqlx.DB) error {
		return ensureDatabase(db, conf.Database.Name)
	})
	return errors.Wrap(err, "creating database")
}

// withMaintenanceDB runs fn over a connection to the "postgres" database, closed before returning.
func withMaintenanceDB(admin bool, conf *core.Config, fn func(db *sqlx.DB) error) error {
	db, err := connect(maintenanceDB, admin, conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

const maintenanceDB = "postgres"

func ensureRole(db *sqlx.DB, name, password string) error {
	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", name); err != nil {
		return errors.Wrap(err, "looking up role")
	}
	if exists {
		return nil
	}
	_, err := db.Exec(createRoleQuery(name, password))
	return err
}

func ensureDatabase(db *sqlx.DB, name string) error {
	var exists bool
	if err := db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name); err != nil {
		return errors.Wrap(err, "looking up database")
	}
	if exists {
		return nil
	}
	_, err := db.Exec(createDatabaseQuery(name))
	return err
}

// DDL takes no bind parameters, names & password are quoted instead.
func createRoleQuery(name, password string) string {
	return "CREATE ROLE " + pq.QuoteIdentifier(name) + " LOGIN CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(password)
}

func createDatabaseQuery(name string) string {
	return "CREATE DATABASE " + pq.QuoteIdentifier(name)
}

func Migrate(db *sql.DB) error {
	return RunMigrations(db, "up")
}

// RunMigrations runs a goose command (up, down, status, redo, version...) over the embedded migrations.
func RunMigrations(db *sql.DB, command string, args ...string) error {
	if err := goose.RunFS(command, db, appfs.FS, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}
