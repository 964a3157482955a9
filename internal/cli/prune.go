package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPruneCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete replay completions and progress sessions older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days := v.GetInt("retention-days")
			rt, err := open(v, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.app.Services.Retention.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Int("days", 180, "Retention window in days (RETENTION_DAYS)")
	_ = v.BindPFlag("retention-days", cmd.Flags().Lookup("days"))
	_ = v.BindEnv("retention-days", "RETENTION_DAYS")
	return cmd
}
