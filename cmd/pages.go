package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/conneroisu/sitepanel/internal/content"
	"github.com/spf13/cobra"
)

// excerptWidth is the excerpt length shown in page tables.
const excerptWidth = 48

func newPagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage the pages of a site",
	}
	cmd.AddCommand(
		newPagesListCommand(),
		newPagesShowCommand(),
		newPagesAddCommand(),
		newPagesDeleteCommand(),
		newPagesMoveCommand(),
	)
	return cmd
}

func newPagesListCommand() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:     "list SITE",
		Aliases: []string{"ls"},
		Short:   "List the pages of a site in order",
		Example: `  sitepanel pages list blog
  sitepanel pages list blog --page 2 -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			number, size := flags.pageParams(a)
			page, err := a.sites.PagesPage(cmd.Context(), args[0], number, size)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), flags.OutputFormat, newListOutput(page), func(w *tabwriter.Writer) {
				if page.Items.Len() > 0 {
					fmt.Fprintln(w, "INDEX\tSLUG\tTITLE\tEXCERPT")
				}
				it := page.Items.Iterator()
				for p, ok := it.Next(); ok; p, ok = it.Next() {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.Index, p.Slug, p.Title, content.Excerpt(p.Content, excerptWidth))
				}
				pageFooter(w, page, "pages")
			})
		},
	}

	flags = AddStandardFlags(cmd, "list", "output")
	return cmd
}

func newPagesShowCommand() *cobra.Command {
	var flags *StandardFlags

	cmd := &cobra.Command{
		Use:   "show SITE SLUG",
		Short: "Show one page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			page, err := a.sites.Page(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), flags.OutputFormat, page, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Site:\t%s\n", page.Site)
				fmt.Fprintf(w, "Slug:\t%s\n", page.Slug)
				fmt.Fprintf(w, "Index:\t%d\n", page.Index)
				fmt.Fprintf(w, "Title:\t%s\n", page.Title)
				fmt.Fprintf(w, "\n%s\n", page.Content)
			})
		},
	}

	flags = AddStandardFlags(cmd, "output")
	return cmd
}

func newPagesAddCommand() *cobra.Command {
	var body, bodyFile string

	cmd := &cobra.Command{
		Use:   "add SITE TITLE",
		Short: "Append a page to a site",
		Example: `  sitepanel pages add blog "Hello World" --content "<p>Hi</p>"
  sitepanel pages add blog "About" --content-file about.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if bodyFile != "" {
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return fmt.Errorf("failed to read content file %s: %w", bodyFile, err)
				}
				body = string(data)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			page, err := a.sites.AddPage(cmd.Context(), args[0], args[1], body)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added page %s/%s at index %d\n", page.Site, page.Slug, page.Index)
			return nil
		},
	}

	cmd.Flags().StringVar(&body, "content", "", "Page content (HTML fragment)")
	cmd.Flags().StringVar(&bodyFile, "content-file", "", "File holding the page content")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")

	return cmd
}

func newPagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete SITE SLUG",
		Aliases: []string{"rm"},
		Short:   "Delete a page",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if err := a.sites.DeletePage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted page %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func newPagesMoveCommand() *cobra.Command {
	var up, down bool

	cmd := &cobra.Command{
		Use:   "move SITE SLUG",
		Short: "Move a page one place up or down",
		Example: `  sitepanel pages move blog about --up
  sitepanel pages move blog about --down`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta := 1
			if up {
				delta = -1
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			if err := a.sites.MovePage(cmd.Context(), args[0], args[1], delta); err != nil {
				return err
			}

			direction := "down"
			if up {
				direction = "up"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved page %s/%s %s\n", args[0], args[1], direction)
			return nil
		},
	}

	cmd.Flags().BoolVar(&up, "up", false, "Move the page towards the start")
	cmd.Flags().BoolVar(&down, "down", false, "Move the page towards the end")
	cmd.MarkFlagsMutuallyExclusive("up", "down")
	cmd.MarkFlagsOneRequired("up", "down")

	return cmd
}
