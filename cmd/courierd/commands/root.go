package commands

import (
	"github.com/spf13/cobra"
)

var (
	port       int
	origins    []string
	peers      []string
	defaultTTL string
	logLevel   string
)

// Execute runs the courierd command tree.
func Execute() error {
	root := &cobra.Command{
		Use:          "courierd",
		Short:        "Store-and-forward broker for an end-to-end encrypted messenger",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.PersistentFlags().IntVar(&port, "port", 0, "listen port (default $COURIER_PORT or 3000)")
	root.PersistentFlags().StringSliceVar(&origins, "origin", nil, "allowed cross-origin (repeatable, default $COURIER_ALLOWED_ORIGINS or *)")
	root.PersistentFlags().StringSliceVar(&peers, "peer", nil, "seed peer broker URL (repeatable, default $COURIER_PEERS)")
	root.PersistentFlags().StringVar(&defaultTTL, "default-ttl", "", "default envelope TTL (default $COURIER_DEFAULT_TTL or 24h)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level: trace, debug, info, warn, error")

	root.AddCommand(serveCmd(), versionCmd())
	return root.Execute()
}
