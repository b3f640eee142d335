package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/outage-alert-service/internal/config"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

func newStatsCmd() *cobra.Command {
	var (
		limit   int
		groupID string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics and recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			recent, err := store.RecentNotifications(cmd.Context(), limit, groupID)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(struct {
				Stats  domain.Stats          `json:"stats"`
				Recent []domain.Notification `json:"recent_notifications"`
			}{st, recent}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "recent notifications to show")
	cmd.Flags().StringVar(&groupID, "group", "", "only show notifications for this group id")
	return cmd
}
