package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/conneroisu/sitepanel/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	var (
		format string
		short  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for sitepanel: the semantic version, git
commit, build time, Go version and target platform.

Examples:
  sitepanel version                # Version and commit
  sitepanel version --short        # Short version only
  sitepanel version --format json  # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return outputVersionJSON(out)
			case "text":
				if short {
					_, err := fmt.Fprintln(out, version.GetShortVersion())
					return err
				}
				return outputVersionText(out)
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "Show short version only")

	return cmd
}

func outputVersionText(out io.Writer) error {
	info := version.GetBuildInfo()

	fmt.Fprintf(out, "sitepanel %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime.Format(time.RFC3339))
	}
	_, err := fmt.Fprintf(out, "Go: %s %s\n", info.GoVersion, info.Platform)
	return err
}

func outputVersionJSON(out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(version.GetBuildInfo())
}
