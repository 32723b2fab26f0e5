package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hirelane/hirelane/adapter/cli"
	"github.com/hirelane/hirelane/internal/gateway"
)

var Cmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored bearer token",
}

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a bearer token",
	Long: `Store the bearer token used for backend calls.

The token is read from --token, otherwise prompted for (hidden) on a
terminal, otherwise read from the first line of stdin.

Examples:
  hirelane auth login --token eyJhbGciOi...
  echo "$TOKEN" | hirelane auth login`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Tokens == nil {
			return errors.New("token storage not configured")
		}

		token := strings.TrimSpace(loginToken)
		if token == "" {
			var err error
			token, err = readToken(cmd)
			if err != nil {
				return err
			}
		}
		if token == "" {
			return errors.New("token is required")
		}

		if err := app.Tokens.SetToken(cmd.Context(), token); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.Success("Token stored."))
		if exp, ok := gateway.TokenExpiry(token); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.Label("Expires:"), exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Tokens == nil {
			return errors.New("token storage not configured")
		}
		if err := app.Tokens.ClearToken(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a usable token is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Tokens == nil {
			return errors.New("token storage not configured")
		}

		token, err := app.Tokens.Token(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if token == "" {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}

		claims, err := gateway.TokenClaims(token)
		if err != nil {
			fmt.Fprintln(out, "Logged in (opaque token).")
			return nil
		}

		exp, hasExp := gateway.TokenExpiry(token)
		if hasExp && !exp.After(time.Now()) {
			fmt.Fprintf(out, "%s at %s\n", cli.Failure("Token expired"), exp.Local().Format(time.RFC1123))
			return nil
		}

		fmt.Fprintln(out, cli.Success("Logged in."))
		for _, key := range []string{"sub", "email", "name"} {
			if v, ok := claims[key].(string); ok && v != "" {
				fmt.Fprintf(out, "%s %s\n", cli.Label(key+":"), v)
			}
		}
		if hasExp {
			fmt.Fprintf(out, "%s %s\n", cli.Label("expires:"), exp.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token")

	Cmd.AddCommand(loginCmd)
	Cmd.AddCommand(logoutCmd)
	Cmd.AddCommand(statusCmd)
}
