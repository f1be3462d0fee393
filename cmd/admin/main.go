package main

import (
	"os"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/db"
	"github.com/tuitionhub/server/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewStdLogger(os.Stderr, false).Fatal("config", err)
	}
	logger := logging.New(cfg)

	conn, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db init", err)
	}

	cli := commandLine{db: conn}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin", err)
		}
		os.Exit(1)
	}
}
