package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/brainworx/scorecard/internal/cmd"
)

func main() {
	// SMTP credentials may live in a local .env file; a missing file is fine.
	_ = godotenv.Load()

	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
