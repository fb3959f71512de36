package main

import (
	"github.com/verdant-cloud/verdant/cmd"
	"github.com/verdant-cloud/verdant/pkg/env"
	"github.com/verdant-cloud/verdant/pkg/log"
)

func main() {
	if err := env.Process(); err != nil {
		log.Fatal("environment failure", "error", err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal("verdant failure", "error", err)
	}
}
