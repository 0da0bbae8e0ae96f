package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/conneroisu/sitepanel/internal/backend"
	"github.com/conneroisu/sitepanel/internal/sites"
	"github.com/spf13/cobra"
)

// Snapshot is the YAML document written by the export command.
type Snapshot struct {
	ExportedAt time.Time      `yaml:"exported_at"`
	Backend    string         `yaml:"backend"`
	Sites      []SiteSnapshot `yaml:"sites"`
}

// SiteSnapshot is one site with its pages in display order.
type SiteSnapshot struct {
	Name  string         `yaml:"name"`
	Pages []backend.Page `yaml:"pages"`
}

func newExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every site and its pages as YAML",
		Example: `  sitepanel export
  sitepanel export --file snapshot.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			snap, err := buildSnapshot(cmd.Context(), a.sites)
			if err != nil {
				return err
			}
			snap.Backend = a.config.Backend.BaseURL

			if file == "" {
				return writeYAML(cmd.OutOrStdout(), snap)
			}
			if err := writeSnapshotFile(file, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sites to %s\n", len(snap.Sites), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write the snapshot to this file instead of stdout")
	return cmd
}

func buildSnapshot(ctx context.Context, svc *sites.Service) (*Snapshot, error) {
	all, err := svc.AllSites(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Sites:      make([]SiteSnapshot, 0, len(all)),
	}
	for _, site := range all {
		pages, err := svc.Pages(ctx, site.Name)
		if err != nil {
			return nil, fmt.Errorf("export site %s: %w", site.Name, err)
		}
		if pages == nil {
			pages = []backend.Page{}
		}
		snap.Sites = append(snap.Sites, SiteSnapshot{Name: site.Name, Pages: pages})
	}

	return snap, nil
}

func writeSnapshotFile(path string, snap *Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return writeYAML(f, snap)
}
