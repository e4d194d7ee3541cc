package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
)

// NewEncodeCommand creates the encode command, which shows the flat
// bracket-notation parameters a request would carry.
func NewEncodeCommand() *cobra.Command {
	var (
		document string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "encode [KEY=VALUE...]",
		Short: "Encode parameters into bracket notation",
		Long: `Flatten parameters the way requests send them.

Values given as KEY=VALUE stay strings. Use --json to encode a nested document:

  cub encode --json '{"user": {"tags": [1, "2"]}}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var node any

			if document != "" {
				parsed, err := cub.ParseJSON([]byte(document))
				if err != nil {
					return err
				}

				node = parsed
			} else {
				params, err := parseKeyValues(args)
				if err != nil {
					return err
				}

				node = params
			}

			flat, err := cub.EncodeStrict(node)
			if err != nil {
				return fmt.Errorf("failed to encode parameters: %w", err)
			}

			if raw {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), flat.Encode())

				return nil
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(flat.JSON()))

				return nil
			case constants.FormatYAML:
				_, err = renderValue(cmd.OutOrStdout(), format, flat.Map())

				return err
			default:
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.Header("Key", "Value")

				for _, param := range flat {
					_ = table.Append(param.Key, param.Value)
				}

				err = table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			}
		},
	}

	cmd.Flags().StringVar(&document, "json", "", "JSON document to encode instead of KEY=VALUE arguments")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the url-encoded form")

	return cmd
}
