package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/vtxana/internal/adapters/http/api"
	"github.com/okian/vtxana/internal/adapters/sink"
	"github.com/okian/vtxana/internal/adapters/source"
	service "github.com/okian/vtxana/internal/app"
	"github.com/okian/vtxana/internal/analysis"
	"github.com/okian/vtxana/internal/config"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/internal/eventgen"
	"github.com/okian/vtxana/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithWriter(io.Discard); err != nil {
		panic(err)
	}
}

const vtxSelectionYAML = `
chi2unc_lt: {id: 0, cut: 10}
eleposTanLambaProd_lt: {id: 1, cut: 0}
eleTrkCluMatch_lt: {id: 2, cut: 10}
posTrkCluMatch_lt: {id: 3, cut: 10}
eleTrkCluTimeDiff_lt: {id: 4, cut: 4}
posTrkCluTimeDiff_lt: {id: 5, cut: 4}
eleposCluTimeDiff_lt: {id: 6, cut: 2}
eleTrkChi2_lt: {id: 7, cut: 6}
posTrkChi2_lt: {id: 8, cut: 6}
eleMom_lt: {id: 9, cut: 1.75}
`

const regionYAML = `
Pair1_eq: {id: 0, cut: 1}
nVtxs_eq: {id: 1, cut: 1}
chi2unc_lt: {id: 2, cut: 10}
eSum_lt: {id: 3, cut: 1.2}
eSum_gt: {id: 4, cut: 0.5}
ele_sharedL0_eq: {id: 5, cut: 0}
pos_sharedL0_eq: {id: 6, cut: 0}
ele_sharedL1_eq: {id: 7, cut: 0}
pos_sharedL1_eq: {id: 8, cut: 0}
`

const histosYAML = `
n_vertices_h: {bins: 10, minX: -0.5, maxX: 9.5}
n_tracks_h: {bins: 20, minX: -0.5, maxX: 19.5}
vtx_chi2_h: {bins: 50, minX: 0, maxX: 50}
vtx_InvM_vtx_z_hh: {bins: 20, minX: 0, maxX: 0.2, binsY: 20, minY: -20, maxY: 80}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}

	cfg := config.New()
	cfg.VtxSelection = write("vtxSelection.yaml", vtxSelectionYAML)
	cfg.HistoCfg = write("histos.yaml", histosYAML)
	cfg.RegionDefinitions = []string{
		write("ESumCR.yaml", regionYAML),
		write("ESumSR.yaml", regionYAML),
	}
	cfg.Output = filepath.Join(dir, "out.yoda")
	cfg.QueueSize = 8
	return cfg
}

func generated(n int) []model.Event {
	cfg := eventgen.DefaultConfig()
	cfg.Seed = 7
	g := eventgen.New(cfg)
	events := make([]model.Event, n)
	for i := range events {
		events[i] = *g.Next()
	}
	return events
}

type failingProcessor struct {
	failOn int
	err    error
	seen   int
}

func (p *failingProcessor) Name() string { return "failing" }

func (p *failingProcessor) Configure(*config.Config) error { return nil }

func (p *failingProcessor) Initialize(context.Context) error { return nil }

func (p *failingProcessor) Finalize(context.Context, histos.Sink) error { return nil }

func (p *failingProcessor) Process(_ context.Context, evt *model.Event) error {
	if evt.Header.EventNumber == p.failOn {
		return p.err
	}
	p.seen++
	return nil
}

func TestService_Run(t *testing.T) {
	Convey("Given a service over an in-memory source and sink", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		out := sink.NewMemory()
		svc := service.New(cfg,
			service.WithSource(source.NewMemory(generated(300)...)),
			service.WithSink(out),
			service.WithRunID("run-1"),
		)

		Convey("When the run completes", func() {
			summary, err := svc.Run(ctx)

			Convey("Then every event is processed and groups come out in order", func() {
				So(err, ShouldBeNil)
				So(summary.RunID, ShouldEqual, "run-1")
				So(svc.RunID(), ShouldEqual, "run-1")
				So(summary.EventsRead, ShouldEqual, 300)
				So(summary.EventsProcessed, ShouldEqual, 300)
				So(summary.Groups, ShouldResemble, []string{analysis.PrimarySelectorName, "ESumCR", "ESumSR"})
				So(out.Closed(), ShouldBeTrue)
			})

			Convey("Then the status reports a finished run", func() {
				st := svc.Status(ctx)
				So(st.RunID, ShouldEqual, "run-1")
				So(st.State, ShouldEqual, api.StateDone)
				So(st.EventsRead, ShouldEqual, 300)
				So(st.EventsProcessed, ShouldEqual, 300)
				So(st.QueueLength, ShouldEqual, 0)
				So(st.Elapsed, ShouldNotBeEmpty)
			})

			Convey("Then the primary n_vertices_h holds one entry per event", func() {
				g, ok := out.Group(analysis.PrimarySelectorName)
				So(ok, ShouldBeTrue)
				var nv float64
				for _, h := range g.H1 {
					if h.Annotation()["name"] == analysis.PrimarySelectorName+"/"+analysis.NVerticesHisto {
						nv = h.SumW()
					}
				}
				So(nv, ShouldEqual, 300)
			})

			Convey("Then identical regions fill identical cut flows", func() {
				cr, _ := out.Group("ESumCR")
				sr, _ := out.Group("ESumSR")
				So(cr.CutFlow.SumW(), ShouldEqual, sr.CutFlow.SumW())
				So(cr.CutFlow.SumW(), ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given an event limit", t, func() {
		cfg := testConfig(t)
		cfg.MaxEvents = 25
		svc := service.New(cfg,
			service.WithSource(source.NewMemory(generated(100)...)),
			service.WithSink(sink.NewMemory()),
		)

		summary, err := svc.Run(context.Background())

		So(err, ShouldBeNil)
		So(summary.EventsRead, ShouldEqual, 25)
		So(summary.EventsProcessed, ShouldEqual, 25)
		So(summary.RunID, ShouldNotBeEmpty)
	})

	Convey("Given a processor that fails mid-run", t, func() {
		boom := errors.New("unknown cut")
		proc := &failingProcessor{failOn: 10, err: boom}
		out := sink.NewMemory()
		svc := service.New(testConfig(t),
			service.WithProcessors(proc),
			service.WithSource(source.NewMemory(generated(200)...)),
			service.WithSink(out),
			service.WithQueueSize(2),
		)

		_, err := svc.Run(context.Background())

		Convey("Then the run stops and nothing is written", func() {
			So(errors.Is(err, boom), ShouldBeTrue)
			So(svc.Status(context.Background()).State, ShouldEqual, api.StateFailed)
			So(err.Error(), ShouldStartWith, "process:")
			So(proc.seen, ShouldEqual, 10)
			So(out.Groups(), ShouldBeEmpty)
			So(out.Closed(), ShouldBeFalse)
		})
	})

	Convey("Given a config missing the histogram file", t, func() {
		cfg := testConfig(t)
		cfg.HistoCfg = ""
		svc := service.New(cfg, service.WithSource(source.NewMemory()), service.WithSink(sink.NewMemory()))

		_, err := svc.Run(context.Background())

		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "configure")
	})

	Convey("Given a monitor address", t, func() {
		cfg := testConfig(t)
		newSvc := func() *service.Service {
			return service.New(cfg,
				service.WithSource(source.NewMemory(generated(20)...)),
				service.WithSink(sink.NewMemory()),
			)
		}

		Convey("When the address is free", func() {
			cfg.MonitorAddr = "127.0.0.1:0"
			summary, err := newSvc().Run(context.Background())

			So(err, ShouldBeNil)
			So(summary.EventsProcessed, ShouldEqual, 20)
		})

		Convey("When the address cannot be bound", func() {
			cfg.MonitorAddr = "256.0.0.1:bad"
			_, err := newSvc().Run(context.Background())

			So(errors.Is(err, api.ErrServe), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "monitor:")
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		svc := service.New(testConfig(t),
			service.WithSource(source.NewMemory(generated(10)...)),
			service.WithSink(sink.NewMemory()),
		)

		_, err := svc.Run(ctx)
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}

func TestService_RunFromFiles(t *testing.T) {
	Convey("Given a compressed event file on disk", t, func() {
		ctx := context.Background()
		cfg := testConfig(t)
		dir := filepath.Dir(cfg.Output)
		cfg.Input = filepath.Join(dir, "events.jsonl.gz")
		cfg.MetricsFile = filepath.Join(dir, "vtxana.prom")

		w, err := source.Create(cfg.Input)
		So(err, ShouldBeNil)
		gen := eventgen.DefaultConfig()
		gen.NumEvents = 50
		_, err = eventgen.Generate(ctx, gen, w)
		So(err, ShouldBeNil)
		So(w.Close(), ShouldBeNil)

		Convey("When the service runs with file adapters", func() {
			svc := service.New(cfg)
			summary, err := svc.Run(ctx)

			Convey("Then the YODA output and the metrics textfile are written", func() {
				So(err, ShouldBeNil)
				So(summary.EventsProcessed, ShouldEqual, 50)

				data, err := os.ReadFile(cfg.Output)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "run_id: "+svc.RunID())
				So(string(data), ShouldContainSubstring, "# group "+analysis.PrimarySelectorName)
				So(string(data), ShouldContainSubstring, "# group ESumSR")

				prom, err := os.ReadFile(cfg.MetricsFile)
				So(err, ShouldBeNil)
				So(string(prom), ShouldContainSubstring, "events_processed_total")
			})
		})

		Convey("When the input is corrupt", func() {
			cfg.Input = filepath.Join(dir, "events.jsonl")
			So(os.WriteFile(cfg.Input, []byte("{\"EventHeader\": {}}\nnot json\n"), 0o600), ShouldBeNil)

			_, err := service.New(cfg).Run(ctx)

			Convey("Then the run fails with a decode error and no output", func() {
				So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
				_, statErr := os.Stat(cfg.Output)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the input is missing", func() {
			cfg.Input = filepath.Join(dir, "missing.jsonl")
			_, err := service.New(cfg).Run(ctx)
			So(errors.Is(err, source.ErrOpen), ShouldBeTrue)
		})
	})
}
