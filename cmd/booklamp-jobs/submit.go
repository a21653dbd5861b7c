package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit function_name [params-file]",
	Short: "Submit a background job and print its id",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params []byte
		if len(args) == 2 {
			b, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read params: %w", err)
			}
			params = b
		}
		id, err := newJobsAPI(cfg).SubmitJob(cmd.Context(), args[0], string(params))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}
