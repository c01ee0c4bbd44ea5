package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hungg523/helpdesk-assistant/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login [employee-code]",
	Short: "Log in with your employee code",
	Long: `Resolve an employee code against the helpdesk backend and remember
the account locally. Prompts for the code when not given as an argument.

Examples:
  helpdesk login NV0395
  helpdesk login`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the locally stored account",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getAuthStore()
		if err != nil {
			return err
		}
		if err := auth.NewService(client, store).Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := currentUser()
		if err != nil {
			if errors.Is(err, auth.ErrNotLoggedIn) {
				fmt.Println("Not logged in.")
				return nil
			}
			return err
		}
		fmt.Printf("%s (%s, id %d)\n", u.EmployeeName, u.EmployeeCode, u.ID)
		return nil
	},
}

func runLogin(cmd *cobra.Command, args []string) error {
	var code string
	if len(args) == 1 {
		code = args[0]
	} else {
		var err error
		code, err = promptEmployeeCode()
		if err != nil {
			return err
		}
	}

	store, err := getAuthStore()
	if err != nil {
		return err
	}

	user, err := auth.NewService(client, store).Login(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	logger.Info("logged in", "employee_code", user.EmployeeCode, "user_id", user.ID)
	fmt.Printf("Logged in as %s (%s).\n", user.EmployeeName, user.EmployeeCode)
	return nil
}

func promptEmployeeCode() (string, error) {
	fmt.Fprint(os.Stderr, "Employee code: ")

	if term.IsTerminal(int(os.Stdin.Fd())) {
		// Codes double as badge numbers; do not echo them.
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	var code string
	if _, err := fmt.Fscanln(os.Stdin, &code); err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
