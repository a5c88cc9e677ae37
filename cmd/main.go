package main

import (
	"os"

	"github.com/Zainify/onlineportal-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
