package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	types "github.com/yungbote/lingua-progress-backend/internal/domain"
)

type unitFile struct {
	Units []struct {
		ID     string `yaml:"id"`
		Kind   string `yaml:"kind"`
		Title  string `yaml:"title"`
		Active *bool  `yaml:"active"`
	} `yaml:"units"`
}

// parseUnitFile reads a catalog document. Units are active unless marked otherwise.
func parseUnitFile(data []byte) ([]*types.PracticeUnit, error) {
	var doc unitFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse units: %w", err)
	}
	seen := map[string]bool{}
	out := make([]*types.PracticeUnit, 0, len(doc.Units))
	for i, u := range doc.Units {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			return nil, fmt.Errorf("unit %d: id is required", i)
		}
		if len(id) > 128 {
			return nil, fmt.Errorf("unit %q: id longer than 128 characters", id)
		}
		if strings.TrimSpace(u.Kind) == "" {
			return nil, fmt.Errorf("unit %q: kind is required", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate unit %q", id)
		}
		seen[id] = true
		active := true
		if u.Active != nil {
			active = *u.Active
		}
		out = append(out, &types.PracticeUnit{ID: id, Kind: u.Kind, Title: u.Title, Active: active})
	}
	return out, nil
}

func newUnitsCmd(v *viper.Viper) *cobra.Command {
	units := &cobra.Command{
		Use:   "units",
		Short: "Manage the practice unit catalog",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert practice units from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			rows, err := parseUnitFile(data)
			if err != nil {
				return err
			}
			rt, err := open(v, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.app.Repos.Units.Upsert(cmd.Context(), nil, rows); err != nil {
				return fmt.Errorf("upsert units: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d unit(s)\n", len(rows))
			return nil
		},
	}
	importCmd.Flags().StringVar(&file, "file", "", "Path to units YAML")
	_ = importCmd.MarkFlagRequired("file")

	units.AddCommand(importCmd)
	return units
}

func newAssignCmd(v *viper.Viper) *cobra.Command {
	var (
		learner string
		unitIDs []string
	)
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign units to a learner (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			learnerID, err := uuid.Parse(learner)
			if err != nil {
				return fmt.Errorf("invalid --learner: %w", err)
			}
			ids := dedupe(unitIDs)
			if len(ids) == 0 {
				return fmt.Errorf("--units is required")
			}
			rt, err := open(v, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			known, err := rt.app.Repos.Units.GetByIDs(cmd.Context(), nil, ids)
			if err != nil {
				return err
			}
			if len(known) != len(ids) {
				return fmt.Errorf("unknown unit in %v; import the catalog first", ids)
			}
			n, err := rt.app.Repos.Assignments.Assign(cmd.Context(), nil, learnerID, ids, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("assign: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "assigned %d new unit(s) to %s\n", n, learnerID)
			return nil
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "Learner id")
	cmd.Flags().StringSliceVar(&unitIDs, "units", nil, "Comma separated unit ids")
	_ = cmd.MarkFlagRequired("learner")
	return cmd
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
