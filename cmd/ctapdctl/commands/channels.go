package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func channelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List allocated CTAPHID channels",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := getChannels(context.Background())
			if err != nil {
				return fmt.Errorf("get channels: %w", err)
			}

			out, err := formatChannels(resp, outputFormat)
			if err != nil {
				return fmt.Errorf("format channels: %w", err)
			}

			fmt.Print(out)
			return nil
		},
	}
}
