package main

import (
	"os"

	"github.com/alvinbaena/pass-audit/internal/cli"
	"github.com/alvinbaena/pass-audit/internal/msg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// stdout is kept for the report
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := cli.Execute(); err != nil {
		msg.NewStd(0, false).Die("%s.", err)
	}
}
