package main

import (
	"fmt"
	"os"

	"github.com/chrissnell/freezecompare/internal/cli"
	"github.com/chrissnell/freezecompare/internal/log"
)

func main() {
	rootCmd := cli.NewRootCommand()

	err := rootCmd.Execute()
	log.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
