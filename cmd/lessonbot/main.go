package main

import (
	"log"

	corecmd "github.com/m3rciful/lessonbot/core/cmd"
	"github.com/m3rciful/lessonbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar: "CONFIG_PATH",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("lessonbot: %v", err)
	}
}
