package main

import (
	"log"

	corecmd "github.com/m3rciful/subbot/core/cmd"
	"github.com/m3rciful/subbot/internal/app"
	"github.com/m3rciful/subbot/internal/config"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: config.DefaultPath,
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}
