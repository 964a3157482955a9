package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/lingua-progress-backend/internal/services"
)

func newTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		learner string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			learnerID, err := uuid.Parse(learner)
			if err != nil {
				return fmt.Errorf("invalid --learner: %w", err)
			}
			log, err := newLogger(v)
			if err != nil {
				return err
			}
			defer log.Sync()

			auth := services.NewAuthService(log, v.GetString("jwt-secret"), nil)
			tok, err := auth.MintToken(learnerID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "Learner id (token subject)")
	cmd.Flags().StringVar(&role, "role", "learner", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}
