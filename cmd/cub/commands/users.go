package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ivelum/cub-client/internal/client"
	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
)

// NewUsersCommand creates the users command group. Besides list and get it
// manages the stored session.
func NewUsersCommand() *cobra.Command {
	cmd := NewResourceCommand(ResourceCommandConfig[*cub.User]{
		Use:      "users",
		Aliases:  []string{"user"},
		Singular: "user",
		Plural:   "users",
		Resource: func(c *client.Client) cub.ResourceClient[*cub.User] { return c.Users() },
	})
	cmd.Long = "Log in and out, and inspect users"

	cmd.AddCommand(newUsersLoginCommand())
	cmd.AddCommand(newUsersLogoutCommand())
	cmd.AddCommand(newUsersMeCommand())
	cmd.AddCommand(newUsersReissueCommand())

	return cmd
}

func newUsersLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		Long:  "Authenticate a user and store the session token for the current API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "Username: ")
				username = readLine(reader)
			}

			if password == "" {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "Password: ")

				var err error

				password, err = readPassword(cmd.InOrStdin(), reader)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}

			if password == "" {
				return constants.ErrPasswordRequired
			}

			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			user, err := cubClient.Users().Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			name, _ := user.Username()
			if name == "" {
				name = username
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s) %s\n", name, user.ID(), constants.CheckMarkSymbol)

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

func newUsersLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Long:  "Remove the session token stored for the current API URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			cubClient.Users().Logout(cmd.Context())

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func newUsersMeCommand() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the current user",
		Long:  "Display the user owning the stored session, or the one given by --token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			user, err := cubClient.Users().Current(cmd.Context(), token)
			if errors.Is(err, cub.ErrNotLoggedIn) {
				return constants.ErrNoSessionToken
			}

			if err != nil {
				return fmt.Errorf("failed to get current user: %w", err)
			}

			return renderModel(cmd.OutOrStdout(), user)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token to use instead of the stored one")

	return cmd
}

func newUsersReissueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reissue",
		Short: "Reissue the session token",
		Long:  "Exchange the stored session token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cubClient, err := CreateClient(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = cubClient.Close() }()

			err = cubClient.Users().Reissue(cmd.Context())
			if errors.Is(err, cub.ErrNotLoggedIn) {
				return constants.ErrNoSessionToken
			}

			if err != nil {
				return fmt.Errorf("failed to reissue token: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Session token reissued")

			return nil
		},
	}
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')

	return strings.TrimSpace(line)
}

// readPassword reads without echo from a terminal and falls back to a plain
// line otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		password, err := term.ReadPassword(int(file.Fd()))
		if err != nil {
			return "", err
		}

		return string(password), nil
	}

	return readLine(reader), nil
}
