package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atlaswatch/api/pkg/config"
	"github.com/atlaswatch/api/pkg/orbit"
)

type estimateOutput struct {
	Object    string         `json:"object"`
	Position  orbit.Position `json:"position"`
	Distance  float64        `json:"distanceAU"`
	DayOffset float64        `json:"dayOffset"`
}

type trajectoryOutput struct {
	Object string                  `json:"object"`
	Window orbit.Window            `json:"window"`
	Step   int                     `json:"step"`
	Points []orbit.TrajectoryPoint `json:"points"`
}

func estimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the tracked object's position on a date",
		Example: `  atlaswatch estimate --date 2025-12-19
  atlaswatch estimate --object "2I/Borisov" --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			object, err := selectObject(cmd)
			if err != nil {
				return err
			}

			asOf := time.Now().UTC()
			if raw, _ := cmd.Flags().GetString("date"); raw != "" {
				if asOf, err = orbit.ParseDate(raw); err != nil {
					return err
				}
			}

			pos, err := orbit.EstimatePosition(&object.Orbit, asOf)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return render(cmd.OutOrStdout(), format, estimateOutput{
				Object:    object.Name,
				Position:  pos,
				Distance:  pos.Distance(),
				DayOffset: asOf.Sub(object.Orbit.PerihelionDate).Hours() / 24,
			})
		},
	}

	cmd.Flags().String("date", "", "date as YYYY-MM-DD (default today)")
	addObjectFlags(cmd)
	return cmd
}

func trajectoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trajectory",
		Short: "Estimate the tracked object's trajectory around perihelion",
		RunE: func(cmd *cobra.Command, args []string) error {
			object, err := selectObject(cmd)
			if err != nil {
				return err
			}

			start, _ := cmd.Flags().GetInt("start")
			end, _ := cmd.Flags().GetInt("end")
			step, _ := cmd.Flags().GetInt("step")
			w := orbit.Window{StartDays: start, EndDays: end}

			points, err := orbit.EstimateTrajectory(&object.Orbit, w, step)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return render(cmd.OutOrStdout(), format, trajectoryOutput{
				Object: object.Name,
				Window: w,
				Step:   step,
				Points: points,
			})
		},
	}

	cmd.Flags().Int("start", -60, "first day offset from perihelion")
	cmd.Flags().Int("end", 60, "last day offset from perihelion")
	cmd.Flags().Int("step", 2, "days between points")
	addObjectFlags(cmd)
	return cmd
}

func addObjectFlags(cmd *cobra.Command) {
	cmd.Flags().String("object", "", "catalog object (default the tracked object)")
	cmd.Flags().String("catalog", "", "objects.yaml path (overrides catalog.path)")
	cmd.Flags().StringP("output", "o", "json", "output format: json or yaml")
}

// selectObject picks the object without starting any network clients
func selectObject(cmd *cobra.Command) (config.TrackedObject, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.TrackedObject{}, err
	}
	path := cfg.Catalog.Path
	if p, _ := cmd.Flags().GetString("catalog"); p != "" {
		path = p
	}
	catalog, err := config.LoadCatalog(path, cfg.Catalog.Tracked)
	if err != nil {
		return config.TrackedObject{}, err
	}

	name, _ := cmd.Flags().GetString("object")
	if name == "" {
		return catalog.Tracked(), nil
	}
	object, ok := catalog.Find(name)
	if !ok {
		return config.TrackedObject{}, fmt.Errorf("object %q not in catalog", name)
	}
	return object, nil
}
