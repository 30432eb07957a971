package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the engine's current in-flight transaction",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := getState(context.Background())
			if err != nil {
				return fmt.Errorf("get state: %w", err)
			}

			out, err := formatState(resp, outputFormat)
			if err != nil {
				return fmt.Errorf("format state: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
