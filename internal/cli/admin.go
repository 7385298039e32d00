package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/shoplist/internal/admin"
	"github.com/JonMunkholm/shoplist/internal/application"
	"github.com/JonMunkholm/shoplist/internal/core"
)

var errNotConfirmed = errors.New("purge not confirmed: pass --yes")

func runPurge(cmd *cobra.Command, s *session, scope string, yes bool) error {
	if err := s.can(core.CapManageUsers); err != nil {
		return err
	}

	var sc admin.Scope
	switch scope {
	case "lists":
		sc = admin.ScopeLists
	case "all":
		sc = admin.ScopeAll
	default:
		return fmt.Errorf("unknown purge scope %q: want lists or all", scope)
	}
	if !yes {
		return errNotConfirmed
	}

	deleted, err := (&admin.Resetter{Store: s.store}).Purge(cmd.Context(), sc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d keys\n", len(deleted))
	return nil
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage registered users (requires manage-users)",
	}

	// withSession opens the store as a user manager and runs fn.
	withSession := func(fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.can(core.CapManageUsers); err != nil {
				return err
			}
			return fn(cmd, s, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered users",
			Args:  cobra.NoArgs,
			RunE: withSession(func(cmd *cobra.Command, s *session, _ []string) error {
				users, err := s.svc.Users(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCREATED")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\n", u.Username, u.CreatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			}),
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Register a user",
			Args:  cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				u, err := s.svc.AddUser(cmd.Context(), s.id, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", u.Username)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "rename OLD NEW",
			Short: "Rename a user and move their list",
			Args:  cobra.ExactArgs(2),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				u, err := s.svc.RenameUser(cmd.Context(), s.id, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], u.Username)
				return nil
			}),
		},
		&cobra.Command{
			Use:     "delete NAME",
			Aliases: []string{"rm"},
			Short:   "Delete a user and their list",
			Args:    cobra.ExactArgs(1),
			RunE: withSession(func(cmd *cobra.Command, s *session, args []string) error {
				if err := s.svc.DeleteUser(cmd.Context(), s.id, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			return application.Run(cmd.Context(), s.svc, application.Options{
				Identity:        s.id,
				ExportDir:       dir,
				Title:           opts.cfg.Export.Title,
				ProductsPerPage: opts.cfg.Export.ProductsPerPage,
				Resetter:        &admin.Resetter{Store: s.store},
			})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory for exported files")
	return cmd
}
