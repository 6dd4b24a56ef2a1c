package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/bartab-console/internal/console/app"
	"github.com/aussiebroadwan/bartab-console/pkg/cryptox"
)

func main() {
	// `console genkey` prints fresh material for CONSOLE_MASTER_KEY.
	if len(os.Args) > 1 && os.Args[1] == "genkey" {
		key, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			log.Fatalf("failed to generate master key: %v", err)
		}
		fmt.Println(key)
		return
	}

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize console: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("console error: %v", err)
	}
}
