package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/focustrack/focustrack/internal/auth"
)

// NewRegisterCommand creates the register command
func NewRegisterCommand() *cobra.Command {
	var fullName string

	cmd := &cobra.Command{
		Use:   "register [email]",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.provider == nil {
				return fmt.Errorf("account management is handled by the server in remote mode; set store.api_token instead")
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			u, err := a.provider.SignUp(ctx, args[0], password, fullName)
			if err != nil {
				return err
			}
			fmt.Printf("Registered and signed in as %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "full name shown on the account")
	return cmd
}

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in to an existing account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.provider == nil {
				return fmt.Errorf("account management is handled by the server in remote mode; set store.api_token instead")
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}

			u, err := a.provider.SignIn(ctx, args[0], password)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidCredentials) {
					return fmt.Errorf("invalid email or password")
				}
				return err
			}
			fmt.Printf("Signed in as %s\n", u.Email)
			return nil
		},
	}
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.provider == nil {
				return fmt.Errorf("account management is handled by the server in remote mode")
			}

			if err := a.provider.SignOut(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

// readPassword prompts without echo when stdin is a terminal, and falls back
// to a plain line read when it is not (tests, pipes).
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
