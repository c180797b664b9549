package main

import (
	"log"
	"os"

	"github.com/trezcool/classboard/apps/shared"
	"github.com/trezcool/classboard/core"
)

func main() {
	conf := core.NewConfig()
	conf.Server.DisableReqLogs = true

	logger, syncLogger, err := shared.NewLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}

	cli := newCommandLine(conf, logger, os.Stdout)
	err = cli.rootCommand().Execute()
	_ = cli.close()
	_ = syncLogger()
	if err != nil {
		os.Exit(1)
	}
}
