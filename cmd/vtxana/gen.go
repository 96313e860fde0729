package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/vtxana/internal/adapters/source"
	"github.com/okian/vtxana/internal/eventgen"
)

func newGenCmd() *cobra.Command {
	cfg := eventgen.DefaultConfig()
	var (
		output  string
		vtxColl string
		trkColl string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic event file",
		Long: "Gen writes seeded synthetic events as JSON lines. Output files ending in\n" +
			".gz or .zst are compressed; \"-\" writes to stdout.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.NumEvents < 0 {
				return errors.New("--events must not be negative")
			}

			w, err := source.Create(output, source.WithCollections(vtxColl, trkColl))
			if err != nil {
				return err
			}

			stats, err := eventgen.Generate(cmd.Context(), cfg, w)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			if output != source.Stdin {
				fmt.Fprintf(cmd.OutOrStdout(), "%d events, %d vertices (%d malformed) written to %s\n",
					stats.EventsGenerated, stats.VerticesGenerated, stats.VerticesMalformed, output)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", source.Stdin, "output file")
	f.StringVar(&vtxColl, "vtx-coll", source.DefaultVertexCollection, "vertex collection name")
	f.StringVar(&trkColl, "trk-coll", source.DefaultTrackCollection, "track collection name")
	f.IntVarP(&cfg.NumEvents, "events", "n", cfg.NumEvents, "number of events")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "generator seed")
	f.IntVar(&cfg.RunNumber, "run", cfg.RunNumber, "run number")
	f.Float64Var(&cfg.BeamE, "beam-e", cfg.BeamE, "beam energy in GeV")
	f.Float64Var(&cfg.TimeOffset, "time-offset", cfg.TimeOffset, "calorimeter time offset in ns")
	f.IntVar(&cfg.MaxVertices, "max-vertices", cfg.MaxVertices, "maximum vertex candidates per event")
	f.Float64Var(&cfg.Pair1Fraction, "pair1", cfg.Pair1Fraction, "fraction of events with the pair1 trigger")
	f.Float64Var(&cfg.MalformedFraction, "malformed", cfg.MalformedFraction, "fraction of malformed vertices")
	f.Float64Var(&cfg.MissingFraction, "missing", cfg.MissingFraction, "fraction of vertices missing their electron track")
	f.Float64Var(&cfg.SharedFraction, "shared", cfg.SharedFraction, "fraction of tracks with shared hits")
	f.IntVar(&cfg.ExtraTracks, "extra-tracks", cfg.ExtraTracks, "unassociated tracks per event")
	return cmd
}
