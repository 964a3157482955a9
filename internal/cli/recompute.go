package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRecomputeCmd(v *viper.Viper) *cobra.Command {
	var learners []string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild confidence and pronunciation aggregates for learners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(learners) == 0 {
				return fmt.Errorf("at least one --learner is required")
			}
			ids := make([]uuid.UUID, 0, len(learners))
			for _, raw := range learners {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid learner %q: %w", raw, err)
				}
				ids = append(ids, id)
			}

			rt, err := open(v, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := map[string]any{}
			for _, id := range ids {
				res, err := rt.app.Services.Progress.Recompute(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("recompute %s: %w", id, err)
				}
				out[id.String()] = res
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&learners, "learner", nil, "Learner id (repeatable or comma separated)")
	return cmd
}
