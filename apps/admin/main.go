package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
	logsvc "github.com/trezcool/maendeleo/services/logger"
	"github.com/trezcool/maendeleo/storage"
	"github.com/trezcool/maendeleo/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// the source is opened by the first view command; migrations are run explicitly with `migrate`
	closeSource := storage.CloseFunc(func() error { return nil })
	openService := func() (*progress.Service, error) {
		src, closeFn, err := storage.OpenSource(conf, false /* migrate */)
		if err != nil {
			return nil, errors.Wrap(err, "setting up source")
		}
		closeSource = closeFn
		return progress.NewService(src, logger, conf), nil
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	color.NoColor = !isTTY

	// start CLI
	cli := commandLine{
		conf:        conf,
		openService: openService,
		openDB:      func() (*sql.DB, error) { return database.Open(conf) },
		out:         os.Stdout,
		color:       isTTY,
	}
	err := cli.run(os.Args)
	_ = closeSource()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
