package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/shoplist/internal/core"
	"github.com/JonMunkholm/shoplist/internal/export"
)

func newImportCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-catalog FILE",
		Short: "Replace the master catalog with a delimited file",
		Long: `Replace the master catalog with a delimited file of aisle;product rows.
The first row is a header and is skipped. A rejected file leaves the
current catalog untouched. Requires the import-catalog capability.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			sum, err := s.svc.ImportCatalog(cmd.Context(), s.id, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products in %d aisles\n", sum.Products, len(sum.Aisles))
			if sum.Warning != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning:", sum.Warning)
			}
			return nil
		},
	}
}

func newImportListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-list FILE",
		Short: "Apply a text snapshot to the list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out, err := s.svc.ImportText(cmd.Context(), s.id, f)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if res := out.Import; res != nil {
				fmt.Fprintf(w, "Found %d entries, updated %d products\n", res.Found, res.Updated)
				if len(res.Unmatched) > 0 {
					fmt.Fprintf(w, "Not in catalog: %s\n", strings.Join(res.Unmatched, ", "))
				}
			}
			if out.Warning != "" {
				fmt.Fprintln(w, "Warning:", out.Warning)
			}
			return nil
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the checked products to a file",
		Long: fmt.Sprintf(`Write the checked products to a file in dir, named after the user
and today's date. Formats: %s.`, strings.Join(export.Keys(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			snap, err := s.svc.Snapshot(cmd.Context(), s.id)
			if err != nil {
				return err
			}

			layout := export.DefaultLayout()
			layout.ProductsPerPage = opts.cfg.Export.ProductsPerPage
			path, err := export.WriteFile(dir, format, export.Document{
				Title:    opts.cfg.Export.Title,
				User:     s.id.Name,
				Date:     time.Now(),
				Snapshot: snap,
				Sorter:   s.svc.Sorter(),
				Layout:   layout,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "export format")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "output directory")
	return cmd
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var (
		reload bool
		purge  string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the list, or purge saved state",
		Long: `Reset discards the saved list of --user. With --reload the list is
refilled from the catalog.

--purge lists removes every saved list and --purge all also removes the
master catalog and the user registry. Purging requires the manage-users
capability and --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if purge != "" {
				return runPurge(cmd, s, purge, yes)
			}

			out, err := s.svc.Reset(cmd.Context(), s.id, reload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "List of %s reset\n", s.id.Name)
			if out.Warning != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning:", out.Warning)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reload, "reload", false, "refill the list from the catalog")
	cmd.Flags().StringVar(&purge, "purge", "", "purge saved state: lists or all")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm a purge")
	return cmd
}

func (s *session) can(c core.Capability) error {
	if !s.id.Can(c) {
		return fmt.Errorf("%s: %w", s.id.Name, core.ErrForbidden)
	}
	return nil
}
