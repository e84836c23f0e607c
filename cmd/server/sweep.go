package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge expired request tokens and sessions once, then exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		purged, err := a.newSweeper().SweepOnce(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("request_tokens", purged).Msg("sweep complete")
		return nil
	},
}
