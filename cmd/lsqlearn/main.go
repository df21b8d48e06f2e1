package main

import (
	"os"

	"github.com/ezoic/lsqlearn/cmd/lsqlearn/cmd"
	"github.com/ezoic/lsqlearn/pkg/log"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		log.LogError(err, "lsqlearn failed")
		os.Exit(1)
	}
}
