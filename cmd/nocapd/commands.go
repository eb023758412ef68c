package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/internal/common/fsutil"
	"github.com/haze/nocap/internal/engine"
	"github.com/haze/nocap/internal/evaluate"
	"github.com/haze/nocap/pkg/types"
)

func newChallengesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "challenges",
		Short: "List the challenge catalog and which models are present on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := engine.ForName(a.cfg.Engine, engine.Options{ONNXLibrary: a.cfg.ONNXLibrary})
			if err != nil {
				return err
			}
			root, err := fsutil.ResolveDir(a.cfg.ModelsDir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHALLENGE\tMODEL")
			for _, c := range challenge.All() {
				state := "-"
				if fsutil.PathExists(filepath.Join(root, c.String(), loader.ArtifactName())) {
					state = "present"
				}
				fmt.Fprintf(tw, "%s\t%s\n", c, state)
			}
			return tw.Flush()
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load every model, print the registry status and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Status())
		},
	}
}

// predictOutput is the predict command's JSON line.
type predictOutput struct {
	Challenge string `json:"challenge"`
	types.Prediction
	MainlyAffirmative bool `json:"mainly_affirmative"`
}

func newPredictCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "predict --challenge <name> <image>",
		Short:   "Score one image file against a challenge",
		Example: "  nocapd predict --challenge bus ./bus.png",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := challenge.Parse(name)
			if err != nil {
				return err
			}
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reg, err := a.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close(cmd.Context())
			p, err := reg.Predict(cmd.Context(), c, string(img))
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(predictOutput{
				Challenge:         c.String(),
				Prediction:        p,
				MainlyAffirmative: p.IsMainlyAffirmative(),
			})
		},
	}
	cmd.Flags().StringVar(&name, "challenge", "", "Challenge name, e.g. traffic_lights")
	_ = cmd.MarkFlagRequired("challenge")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		asJSON      bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "evaluate <dir>",
		Short: "Report accuracy over a labelled corpus <dir>/<size>/<challenge>/{matches,not matches}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer reg.Close(cmd.Context())
			elog := a.log.With().Str("component", "evaluate").Logger()
			rep, err := evaluate.Run(cmd.Context(), args[0], reg, evaluate.Options{Concurrency: concurrency, Logger: &elog})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return rep.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Challenges evaluated at once")
	return cmd
}
