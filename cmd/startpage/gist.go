package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/greg-hellings/startpage/pkg/view"
)

func (c *cli) newGistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gist",
		Short: "Synchronize the navigation data with a GitHub Gist",
		Long: strings.TrimSpace(`
Pull and push the navigation data to one file in a GitHub Gist. Every
transfer is started by hand and overwrites the other side after a
confirmation. Pushing needs a token with the gist scope; it can also be
given in $STARTPAGE_GIST_TOKEN.

Examples:
  startpage gist set 0123456789abcdef nav.yaml
  startpage gist token
  startpage gist pull --yes`),
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <id> <filename>",
			Short: "Set the target gist id and filename",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				filename := strings.Join(args[1:], " ")
				return c.finish(cmd, a.SetGistTarget(args[0], filename), "Gist target set to %s/%s", args[0], filename)
			},
		},
		&cobra.Command{
			Use:   "token [token]",
			Short: "Store a GitHub token (prompted for when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				var token string
				if len(args) == 1 {
					token = args[0]
				} else if token, err = readToken(cmd); err != nil {
					return err
				}
				token = strings.TrimSpace(token)
				if token == "" {
					return errors.New("token cannot be empty (use clear-token to remove it)")
				}
				return c.finish(cmd, a.Settings.SetToken(token), "Gist token set")
			},
		},
		&cobra.Command{
			Use:   "clear-token",
			Short: "Remove the stored GitHub token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finish(cmd, a.Settings.ClearToken(), "Gist token cleared")
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the sync target, token and last transfers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				formatter := &view.StatusFormatter{EnableColors: !c.noColor}
				return formatter.Render(a.Syncer.Status(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "test",
			Short: "Check that the gist file can be read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finishSync(cmd, a.Syncer.Test(cmd.Context()), "Gist file is reachable")
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Overwrite the local data with the gist file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finishSync(cmd, a.Syncer.Pull(cmd.Context()), "Pulled from Gist")
			},
		},
		&cobra.Command{
			Use:   "push",
			Short: "Overwrite the gist file with the local data",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.load()
				if err != nil {
					return err
				}
				return c.finishSync(cmd, a.Syncer.Push(cmd.Context()), "Pushed to Gist")
			},
		},
	)
	return cmd
}

// readToken reads a token without echo on a terminal, or one line of input
// otherwise.
func readToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "GitHub token (gist scope): ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return line, nil
}
