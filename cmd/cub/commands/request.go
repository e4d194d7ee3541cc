package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
)

// NewRequestCommand creates the request command for calling any API path.
func NewRequestCommand() *cobra.Command {
	var document string

	cmd := &cobra.Command{
		Use:   "request METHOD PATH [KEY=VALUE...]",
		Short: "Send a raw API request",
		Long: `Send a request to any API path relative to the API URL.

Parameters go to the query string for GET, HEAD, DELETE and OPTIONS and to the
body otherwise. The reply is decoded into objects where it carries them.`,
		Args: cobra.MinimumNArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			path := args[1]

			var params any

			if document != "" {
				parsed, err := cub.ParseJSON([]byte(document))
				if err != nil {
					return err
				}

				params = parsed
			} else if len(args) > constants.MinimumArgumentCount {
				kv, err := parseKeyValues(args[constants.MinimumArgumentCount:])
				if err != nil {
					return err
				}

				params = kv
			}

			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			resp, err := cubClient.Request(cmd.Context(), method, path, params)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			if !resp.OK() {
				message, fieldErrors := cub.ParseErrorMessage(resp.Body)

				return &cub.APIError{StatusCode: resp.StatusCode, Message: message, Params: fieldErrors}
			}

			return renderResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&document, "json", "", "JSON document to send instead of KEY=VALUE arguments")

	return cmd
}

func renderResponse(cmd *cobra.Command, resp *cub.Response) error {
	out := cmd.OutOrStdout()

	if model, ok := resp.Data.(cub.Model); ok {
		return renderModel(out, model)
	}

	if items, ok := resp.Data.([]any); ok {
		if models, _ := cub.Slice[cub.Model](items); len(models) == len(items) {
			return renderModels(out, models)
		}
	}

	format, err := outputFormat()
	if err != nil {
		return err
	}

	if resp.Data != nil {
		if done, err := renderValue(out, format, resp.Data); done {
			return err
		}
	}

	_, _ = fmt.Fprintln(out, string(resp.Body))

	return nil
}
