package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/feedbackkit/internal/client/config"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

// newAppFn is a test seam for App construction.
var newAppFn = NewApp

// session carries the App built in PersistentPreRunE to the subcommands
// and back to Execute for cleanup.
type session struct {
	app *App
	in  *bufio.Reader
}

// reported marks errors already shown to the user by the App.
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

func (s *session) run(fn func(ctx context.Context, a *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := fn(cmd.Context(), s.app); err != nil {
			return reported{err}
		}
		return nil
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	s := &session{in: bufio.NewReader(in)}
	root := newRootCommand(s)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if s.app != nil {
		if cerr := s.app.Close(); cerr != nil {
			fmt.Fprintln(errOut, "close:", cerr)
		}
	}
	if err == nil {
		return 0
	}

	var r reported
	if !errors.As(err, &r) {
		msg := common.UserMessage(err)
		if common.KindOf(err) == common.KindSystem {
			msg = err.Error()
		}
		fmt.Fprintln(errOut, "Error:", msg)
	}
	return 1
}

func newRootCommand(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:   "feedbackkit",
		Short: "Browse the changelog and roadmap of a feedback backend",
		Long: `feedbackkit talks to a feedback backend on behalf of one tenant and
application: it lists releases, shows the roadmap and votes on tickets.

Run without a subcommand to start the interactive shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			log, err := logging.New(logging.Config{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			s.app, err = newAppFn(cmd.Context(), cfg, log, s.in, cmd.OutOrStdout())
			return err
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	shell := func(cmd *cobra.Command, _ []string) error {
		printlnFn("feedbackkit shell (type 'help' for commands)")
		runREPL(cmd.Context(), s.app, s.app.status, bufio.NewScanner(s.in))
		return nil
	}
	root.RunE = shell

	var pages int
	releases := &cobra.Command{
		Use:   "releases",
		Short: "List releases",
		Args:  cobra.NoArgs,
		RunE: s.run(func(ctx context.Context, a *App) error {
			if err := a.Releases(ctx); err != nil {
				return err
			}
			for i := 1; i < pages; i++ {
				if err := a.More(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	releases.Flags().IntVar(&pages, "pages", 1, "number of pages to load")

	release := &cobra.Command{
		Use:   "release <id>",
		Short: "Show one release",
		Args:  cobra.ExactArgs(1),
	}
	release.RunE = func(cmd *cobra.Command, args []string) error {
		return s.run(func(ctx context.Context, a *App) error { return a.Release(ctx, args[0]) })(cmd, args)
	}

	tickets := &cobra.Command{
		Use:   "tickets [tab]",
		Short: "List roadmap tickets",
		Args:  cobra.MaximumNArgs(1),
	}
	tickets.RunE = func(cmd *cobra.Command, args []string) error {
		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		return s.run(func(ctx context.Context, a *App) error { return a.Tickets(ctx, filter) })(cmd, args)
	}

	root.AddCommand(
		releases,
		release,
		tickets,
		voteCommand(s, "vote", "Vote for a ticket", true),
		voteCommand(s, "unvote", "Remove your vote from a ticket", false),
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the stored access token",
			Args:  cobra.NoArgs,
			RunE:  s.run(func(ctx context.Context, a *App) error { return a.Logout(ctx) }),
		},
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell",
			Args:  cobra.NoArgs,
			RunE:  shell,
		},
	)
	return root
}

func voteCommand(s *session, use, short string, voted bool) *cobra.Command {
	var tab string
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&tab, "tab", "", "roadmap tab the ticket is listed on")
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return s.run(func(ctx context.Context, a *App) error {
			if err := a.Tickets(ctx, tab); err != nil {
				return err
			}
			if voted {
				return a.Vote(ctx, args[0])
			}
			return a.Unvote(ctx, args[0])
		})(c, args)
	}
	return cmd
}
