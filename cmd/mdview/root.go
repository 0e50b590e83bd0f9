package main

import (
	"github.com/spf13/cobra"

	"github.com/arran4/mdview/internal/logger"
)

type rootFlags struct {
	logLevel string
	logHuman bool

	log *logger.Logger
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "mdview",
		Short:         "Render Markdown into a themed widget tree and paint it to an image",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New(logger.Options{
				Level:         flags.logLevel,
				HumanReadable: flags.logHuman,
				Writer:        cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			flags.log = log
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Diagnostic log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&flags.logHuman, "log-human", false, "Write logs as human readable text instead of JSON")

	cmd.AddCommand(newRenderCmd(flags))
	cmd.AddCommand(newTreeCmd(flags))
	cmd.AddCommand(newThemesCmd())

	return cmd
}
