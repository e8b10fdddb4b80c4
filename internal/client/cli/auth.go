package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bloombuddy/internal/client/session"
)

func loginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var username string
			if len(args) == 1 {
				username = args[0]
			} else {
				var err error
				if username, err = GetSimpleText(e.in, "Username", out); err != nil {
					return err
				}
			}
			if username == "" {
				return errors.New("username is required")
			}

			pw, err := GetPassword(out)
			if err != nil {
				return err
			}
			defer clear(pw)

			api, err := e.deps.Dial(e.cfg.ServerEndpointAddr, Session{})
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := e.requestContext(cmd.Context())
			defer cancel()

			tokens, err := api.Login(ctx, username, string(pw))
			if err != nil {
				return explain(err)
			}

			err = e.store.Save(&session.Session{
				Server:       e.cfg.ServerEndpointAddr,
				Username:     username,
				AccessToken:  tokens.AccessToken,
				RefreshToken: tokens.RefreshToken,
			})
			if err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Fprintf(out, "Logged in as %s\n", username)
			return nil
		},
	}
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func pingCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := e.deps.Dial(e.cfg.ServerEndpointAddr, Session{})
			if err != nil {
				return err
			}
			defer api.Close()

			ctx, cancel := e.requestContext(cmd.Context())
			defer cancel()

			if err := api.Ping(ctx); err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up\n", e.cfg.ServerEndpointAddr)
			return nil
		},
	}
}
