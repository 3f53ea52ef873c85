package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

// envFiles are merged into the environment before configuration is read.
var envFiles = []string{".env"}

func main() {
	rootCmd := &cobra.Command{
		Use:           "visadesk",
		Short:         "visadesk - passport and visa records over a hosted backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
