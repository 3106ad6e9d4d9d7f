package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/statkeys/internal/link"
)

// LinkOptions holds flags for the link command.
type LinkOptions struct {
	*RootOptions
	Endpoint   string
	Host       string
	APIVersion int
}

// LinkResult is the output of the link command.
type LinkResult struct {
	Key      string `json:"key"`
	Endpoint string `json:"endpoint"`
	Host     string `json:"host"`
	Ref      string `json:"ref"`
}

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "link <key>",
		Short: "Print the proxy reference that queries a key",
		Long: `Print the proxy reference that queries one statistics key on the
configured cluster. Index placeholders are replaced by the first
instance.

Examples:
  statkeys link node.N.disk.N.reads --host 10.0.0.5
  statkeys link node.N.cpu.user --endpoint history`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Endpoint, "endpoint", "e", link.EndpointCurrent, "statistics endpoint (current|history)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "cluster host (overrides config)")
	cmd.Flags().IntVar(&opts.APIVersion, "api-version", 0, "platform API version (overrides config)")

	return cmd
}

func runLink(opts *LinkOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, "loading configuration", err)
	}
	b := cfg.LinkBuilder()
	if opts.Host != "" {
		host := opts.Host
		b.Host = &host
	}
	if opts.APIVersion > 0 {
		b.APIVersion = opts.APIVersion
	}

	ref, ok, err := b.Link(key, opts.Endpoint)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidArg, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeInvalidArg+": building link", err)
	}
	if !ok {
		msg := "no cluster host configured: use --host or set host in the configuration"
		_ = formatter.Error(ErrCodeNoHost, msg, nil)
		return NewExitError(ExitCommandError, ErrCodeNoHost+": "+msg)
	}

	if formatter.IsJSON() {
		return formatter.Success(LinkResult{Key: key, Endpoint: opts.Endpoint, Host: *b.Host, Ref: ref})
	}
	fmt.Fprintln(formatter.Writer, ref)
	return nil
}
