package main

import (
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:   "icuctl",
		Short: "ICU monitoring command line client",
		Long: `icuctl talks to an icu-monitor server.

It can:
- sign in and keep the access token in the user config dir
- stream the live patient roster with alarms and focus cycling
- admit patients and inspect monitor inventory
- export the live roster to Excel`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", opts.server, "icu-monitor base URL (env ICU_SERVER)")
	flags.StringVar(&opts.sessionPath, "session", "", "session file (default $XDG_CONFIG_HOME/icuctl/session.yaml)")
	flags.BoolVar(&opts.bypass, "bypass", opts.bypass, "use the development bypass user (env ICU_BYPASS)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		loginCmd(opts),
		logoutCmd(opts),
		whoamiCmd(opts),
		watchCmd(opts),
		patientsCmd(opts),
		admitCmd(opts),
		monitorsCmd(opts),
		noteCmd(opts),
		exportCmd(opts),
	)
	return cmd
}
