// Package storage picks the progress data source configured for the app.
package storage

import (
	"github.com/pkg/errors"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/storage/database"
	inmemdb "github.com/trezcool/maendeleo/storage/database/inmem"
	sqlxrepos "github.com/trezcool/maendeleo/storage/database/sqlx"
	"github.com/trezcool/maendeleo/storage/feed"
)

// CloseFunc releases the resources held by a source.
type CloseFunc func() error

func noopClose() error { return nil }

// OpenSource opens the source selected by conf.Progress.Source.
// migrate is only used by the db source.
func OpenSource(conf *core.Config, migrate bool) (progress.Source, CloseFunc, error) {
	switch conf.Progress.Source {
	case core.SourceDB:
		if migrate {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.Connect(conf)
		if err != nil {
			return nil, nil, err
		}
		if migrate {
			if err = database.Migrate(db.DB); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return sqlxrepos.NewProgressRepository(db), db.Close, nil

	case core.SourceFeed:
		if conf.Feed.BaseURL == "" {
			return nil, nil, errors.New("feed.baseURL is not set")
		}
		return feed.NewClient(conf), noopClose, nil

	case core.SourceMemory, "":
		db := inmemdb.Open()
		if conf.Progress.SeedFile != "" {
			var err error
			if db, err = inmemdb.OpenSeedFile(conf.Progress.SeedFile); err != nil {
				return nil, nil, err
			}
		}
		return inmemdb.NewProgressRepository(db), noopClose, nil

	default:
		return nil, nil, errors.Errorf("unknown progress source %q", conf.Progress.Source)
	}
}
