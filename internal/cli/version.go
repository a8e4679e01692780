package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/bindkit/version"
)

func newVersionCommand() *cobra.Command {
	var short, asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Read()
			out := cmd.OutOrStdout()
			switch {
			case short:
				fmt.Fprintln(out, info.String())
			case asJSON:
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling version info: %w", err)
				}
				fmt.Fprintln(out, string(b))
			default:
				fmt.Fprintf(out, "%s %s\n", serviceName, info.Long())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print the version only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version info as JSON")
	return cmd
}
