package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/smartwaste/civic-core/internal/core/domain"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email, password, as string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password, or as a demo role",
		Example: `  smartwaste login --email john@example.com --password password
  smartwaste login --as admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (as == "") == (email == "") {
				return errors.New("use either --email or --as")
			}

			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			var id domain.Identity
			if as != "" {
				role, perr := domain.ParseRole(as)
				if perr != nil {
					return perr
				}
				id, err = sess.SwitchRole(cmd.Context(), role)
			} else {
				id, err = sess.Authenticate(cmd.Context(), email, password)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Logged in"))
			printIdentity(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of a demo user")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	cmd.Flags().StringVar(&as, "as", "", "Log in as the demo user of a role (citizen, worker, admin)")
	cmd.MarkFlagsMutuallyExclusive("email", "as")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			id, ok := sess.CurrentIdentity(cmd.Context())
			if !ok {
				return errNotLoggedIn
			}
			printIdentity(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newSwitchRoleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "switch-role <role>",
		Short:     "Become the demo user of another role",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"citizen", "worker", "admin"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			id, err := sess.SwitchRole(cmd.Context(), domain.Role(args[0]))
			if err != nil {
				return fmt.Errorf("%w: %q", err, args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), headerStyle.Render("Switched to "+id.Role.Label()))
			printIdentity(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

type roleRow struct {
	Role    domain.Role `json:"role"    yaml:"role"`
	Label   string      `json:"label"   yaml:"label"`
	Name    string      `json:"name"    yaml:"name"`
	Email   string      `json:"email"   yaml:"email"`
	Current bool        `json:"current" yaml:"current"`
}

func newRolesCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List the roles you can switch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := opts.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			current, _ := sess.CurrentIdentity(cmd.Context())
			entries := sess.AvailableRoles()
			rows := make([]roleRow, len(entries))
			for i, e := range entries {
				rows[i] = roleRow{
					Role:    e.Role,
					Label:   e.Role.Label(),
					Name:    e.Identity.Name,
					Email:   e.Identity.Email,
					Current: e.Identity.ID == current.ID,
				}
			}

			w := cmd.OutOrStdout()
			switch output {
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(rows); err != nil {
					return err
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			case "table", "":
				printRoles(w, rows)
				return nil
			}
			return fmt.Errorf("unknown output format %q (table, yaml, json)", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, yaml or json")
	return cmd
}

var errNotLoggedIn = errors.New("not logged in (run: smartwaste login)")

func printIdentity(w io.Writer, id domain.Identity) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Name: "), nameStyle.Render(id.Name))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Email:"), id.Email)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Role: "), id.Role.Label())
}

func printRoles(w io.Writer, rows []roleRow) {
	for _, r := range rows {
		marker := "  "
		line := fmt.Sprintf("%-14s %-13s %s", r.Label, r.Name, labelStyle.Render(r.Email))
		if r.Current {
			marker = currentStyle.Render("* ")
			line += " " + currentStyle.Render("(current)")
		}
		fmt.Fprintln(w, marker+line)
	}
}
