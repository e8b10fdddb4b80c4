// Package cli is the bloombuddy command-line client: it logs in over gRPC,
// keeps the session on disk and shows plants and reminders.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/bloombuddy/internal/client/client"
	"github.com/dmitrijs2005/bloombuddy/internal/client/config"
	"github.com/dmitrijs2005/bloombuddy/internal/client/session"
	"github.com/dmitrijs2005/bloombuddy/internal/rpcapi"
)

// API is the part of the gRPC client the commands use.
type API interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, username, password string) (client.Tokens, error)
	ListPlants(ctx context.Context) ([]rpcapi.Plant, error)
	ListReminders(ctx context.Context, filter string) (*rpcapi.ListRemindersResponse, error)
	SetReminderCompleted(ctx context.Context, id int64, completed bool) error
	PresignPlantImage(ctx context.Context, contentType string) (*rpcapi.PresignPlantImageResponse, error)
	SetPlantImage(ctx context.Context, plantID int64, key string) (*rpcapi.Plant, error)
	Close() error
}

// Session is what a command hands the dialer: saved tokens and a hook
// for rotated ones. Both are empty for login and ping.
type Session struct {
	Tokens    client.Tokens
	OnRefresh func(client.Tokens)
}

type Dialer func(addr string, s Session) (API, error)

// Deps are the process-level inputs. Zero fields get real defaults.
type Deps struct {
	In         io.Reader
	Out        io.Writer
	LookupEnv  func(string) (string, bool)
	Dial       Dialer
	HTTPClient *http.Client
}

func (d *Deps) setDefaults() {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.LookupEnv == nil {
		d.LookupEnv = os.LookupEnv
	}
	if d.Dial == nil {
		d.Dial = func(addr string, s Session) (API, error) {
			return client.NewBloomBuddyClient(addr,
				client.WithTokens(s.Tokens),
				client.OnTokenRefresh(s.OnRefresh),
			)
		}
	}
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
}

// env is shared by all subcommands of one invocation.
type env struct {
	deps       Deps
	in         *bufio.Reader
	configPath string
	server     string

	cfg   *config.Config
	store *session.Store
}

func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Load(e.configPath, e.deps.LookupEnv)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerEndpointAddr = e.server
	}
	e.cfg = cfg
	e.store = session.NewStore(cfg.SessionDir)
	return nil
}

func (e *env) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.RequestTimeout)
}

// connect dials the server of the saved session with its tokens. Rotated
// tokens are written back to the session file.
func (e *env) connect(cmd *cobra.Command) (API, error) {
	sess, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	addr := e.cfg.ServerEndpointAddr
	if sess.Server != "" && !cmd.Flags().Changed("server") {
		addr = sess.Server
	}

	return e.deps.Dial(addr, Session{
		Tokens: client.Tokens{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken},
		OnRefresh: func(t client.Tokens) {
			sess.AccessToken, sess.RefreshToken = t.AccessToken, t.RefreshToken
			if err := e.store.Save(sess); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not save refreshed session: %v\n", err)
			}
		},
	})
}

// explain turns client errors into something a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return fmt.Errorf("%w: session is no longer valid, run `bloombuddy login`", err)
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Errorf("%w: is the server running?", err)
	}
	return err
}

// NewRootCmd builds the bloombuddy command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	deps.setDefaults()
	e := &env{deps: deps, in: bufio.NewReader(deps.In)}

	root := &cobra.Command{
		Use:           "bloombuddy",
		Short:         "Plant care reminders from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.load(cmd)
		},
	}
	root.SetIn(deps.In)
	root.SetOut(deps.Out)

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "path to JSON config file")
	root.PersistentFlags().StringVarP(&e.server, "server", "a", "", "gRPC server address (host:port)")

	root.AddCommand(
		loginCmd(e),
		logoutCmd(e),
		pingCmd(e),
		plantsCmd(e),
		remindersCmd(e),
		completeCmd(e, "done", true),
		completeCmd(e, "undone", false),
		photoCmd(e),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, deps Deps) int {
	root := NewRootCmd(deps)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}
