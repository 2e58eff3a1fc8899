package main

import (
	"context"
	"os"

	"github.com/isdelr/tasktrack-be/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("tasktrack failed")
		os.Exit(1)
	}
}
