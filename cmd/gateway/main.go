package main

import (
	"os"

	"github.com/abebe-delivery/gateway/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
