// Package cmd provides the command-line interface of memverify.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memverify",
	Short: "Memverify verifies a clocked auto-incrementing memory.",
	Long: `Memverify drives a memory device and a reference model with the ` +
		`same stimulus and compares the device output with the predictions ` +
		`of the model, one tick at a time. It can also summarize runs ` +
		`recorded into SQLite databases.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	atexit.Exit(1)
}
