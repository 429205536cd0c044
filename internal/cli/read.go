package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covguard/fuzzcheck/internal/driver"
)

var readCmd = &cobra.Command{
	Use:   "read --input-file FILE -- TARGET [ARGS...]",
	Short: "Run TARGET once against a single input file and report whether it crashed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().String("input-file", "", "input file to replay")
	_ = readCmd.MarkFlagRequired("input-file")
}

func runRead(cmd *cobra.Command, args []string) error {
	inputFile, _ := cmd.Flags().GetString("input-file")
	data, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	target := runSubprocessTarget(args[0], args[1:])
	crashed, err := driver.Read(target, data)
	if err != nil {
		return fmt.Errorf("run target: %w", err)
	}

	if crashed {
		fmt.Fprintln(os.Stdout, "crashed")
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, "ok")
	return nil
}
