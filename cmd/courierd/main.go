package main

import (
	"os"

	"courier/cmd/courierd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
