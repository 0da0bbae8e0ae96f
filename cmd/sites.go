package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/conneroisu/sitepanel/internal/content"
	"github.com/conneroisu/sitepanel/internal/pagination"
	"github.com/spf13/cobra"
)

func newSitesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List and create sites",
	}
	cmd.AddCommand(newSitesListCommand(), newSitesCreateCommand())
	return cmd
}

func newSitesListCommand() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sites one page at a time",
		Example: `  sitepanel sites list
  sitepanel sites list --page 2 --size 10
  sitepanel sites list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			number, size := flags.pageParams(a)
			page, err := a.sites.SitesPage(cmd.Context(), number, size)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), flags.OutputFormat, newListOutput(page), func(w *tabwriter.Writer) {
				if page.Items.Len() > 0 {
					fmt.Fprintln(w, "NAME\tDISPLAY NAME")
				}
				for site := range page.Items.All() {
					fmt.Fprintf(w, "%s\t%s\n", site.Name, content.DisplayName(site.Name))
				}
				pageFooter(w, page, "sites")
			})
		},
	}

	flags = AddStandardFlags(cmd, "list", "output")
	return cmd
}

func newSitesCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			site, err := a.sites.CreateSite(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created site %s\n", site.Name)
			return nil
		},
	}
}

// pageParams resolves --page and --size against the admin paging settings.
func (f *StandardFlags) pageParams(a *app) (int, int) {
	return pagination.Normalize(f.Page, f.Size, a.config.Admin.PageSize, a.config.Admin.MaxPageSize)
}
