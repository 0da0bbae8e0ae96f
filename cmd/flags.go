package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// outputFormats are the values accepted by --output.
var outputFormats = []string{"table", "json", "yaml"}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Server flags
	Port       int
	Host       string
	LiveReload bool

	// List flags
	Page int
	Size int

	// Output flags
	OutputFormat string
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "server":
			addServerFlags(cmd, flags)
		case "list":
			addListFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addServerFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 8080, "Port to serve on")
	cmd.Flags().StringVar(&flags.Host, "host", "localhost", "Host to bind to")
	cmd.Flags().BoolVar(&flags.LiveReload, "live-reload", false, "Reload admin pages when the config file changes")
	AddFlagValidation(cmd, "port", ValidatePort)
}

func addListFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().IntVar(&flags.Page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&flags.Size, "size", 0, "Items per page (default admin.page_size)")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	AddFlagValidation(cmd, "output", ValidateOutputFormat)
}

// ValidateFlags validates flag values that depend on each other.
func (f *StandardFlags) ValidateFlags() error {
	if f.Page < 0 {
		return fmt.Errorf("page must not be negative, got %d", f.Page)
	}
	if f.Size < 0 {
		return fmt.Errorf("size must not be negative, got %d", f.Size)
	}
	if f.OutputFormat != "" {
		if err := ValidateOutputFormat(f.OutputFormat); err != nil {
			return err
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks that portStr is a usable TCP port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

// ValidateOutputFormat checks format against the supported output formats.
func ValidateOutputFormat(format string) error {
	for _, f := range outputFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s",
		format, strings.Join(outputFormats, ", "))
}
