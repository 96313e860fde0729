package sink_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/vtxana/internal/adapters/sink"
	"github.com/okian/vtxana/internal/domain/histos"
	"github.com/okian/vtxana/internal/domain/selection"
	. "github.com/smartystreets/goconvey/convey"
)

func group(t *testing.T, name string) histos.Group {
	t.Helper()
	rs, err := selection.New(name,
		selection.Cut{Name: "chi2unc_lt", ID: 0, Kind: selection.LessThan, Threshold: 10},
		selection.Cut{Name: "eSum_gt", ID: 1, Kind: selection.GreaterThan, Threshold: 0.5},
	)
	if err != nil {
		t.Fatalf("rule set: %v", err)
	}
	rs.Begin(1)
	if _, err := rs.Evaluate("chi2unc_lt", 1, 1); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	set := histos.NewSet(name, []histos.Definition{
		{Name: "n_tracks_h", BinsX: 10, MinX: -0.5, MaxX: 9.5},
		{Name: "ele_p_pos_p_hh", BinsX: 5, MinX: 0, MaxX: 3, BinsY: 5, MinY: 0, MaxY: 3},
	})
	set.Fill1D("n_tracks_h", 4, 1)
	set.Fill2D("ele_p_pos_p_hh", 1, 1.2, 1)
	return set.Group(rs.Histogram())
}

func TestYODA(t *testing.T) {
	Convey("Given a YODA sink over a buffer", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		y := sink.NewYODA(&buf, sink.WithHeader("vtxana run r-1", "ana_name vtxana"))

		Convey("When two groups are written", func() {
			So(y.WriteGroup(ctx, group(t, "vtxSelection")), ShouldBeNil)
			So(y.WriteGroup(ctx, group(t, "ESumCR")), ShouldBeNil)
			So(y.Close(), ShouldBeNil)
			out := buf.String()

			Convey("Then the header comes once and groups keep their order", func() {
				So(strings.Count(out, "# vtxana run r-1"), ShouldEqual, 1)
				So(strings.Index(out, "# group vtxSelection"), ShouldBeLessThan, strings.Index(out, "# group ESumCR"))
				So(y.Groups(), ShouldResemble, []string{"vtxSelection", "ESumCR"})
			})

			Convey("Then each group holds its cut flow and histograms", func() {
				So(out, ShouldContainSubstring, "ESumCR/cutflow")
				So(out, ShouldContainSubstring, "ESumCR/n_tracks_h")
				So(out, ShouldContainSubstring, "vtxSelection/ele_p_pos_p_hh")
				So(strings.Count(out, "YODA_HISTO1D"), ShouldBeGreaterThanOrEqualTo, 4)
				So(out, ShouldContainSubstring, "YODA_HISTO2D")
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := y.WriteGroup(cctx, group(t, "ESumCR"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a YODA file", t, func() {
		path := filepath.Join(t.TempDir(), "out.yoda")
		y, err := sink.CreateYODA(path)
		So(err, ShouldBeNil)
		So(y.WriteGroup(context.Background(), group(t, "ESumSR")), ShouldBeNil)
		So(y.Close(), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, "# group ESumSR")
	})

	Convey("Given an unwritable path", t, func() {
		_, err := sink.CreateYODA(filepath.Join(t.TempDir(), "missing", "out.yoda"))
		So(errors.Is(err, histos.ErrWrite), ShouldBeTrue)
	})
}

func TestMemory(t *testing.T) {
	Convey("Given a memory sink", t, func() {
		m := sink.NewMemory()
		So(m.WriteGroup(context.Background(), group(t, "vtxSelection")), ShouldBeNil)
		So(m.WriteGroup(context.Background(), group(t, "ESumCR")), ShouldBeNil)
		So(m.Close(), ShouldBeNil)

		g, ok := m.Group("ESumCR")
		So(ok, ShouldBeTrue)
		So(g.CutFlow.SumW(), ShouldEqual, 2)
		So(len(m.Groups()), ShouldEqual, 2)
		So(m.Closed(), ShouldBeTrue)

		_, ok = m.Group("missing")
		So(ok, ShouldBeFalse)
	})
}
