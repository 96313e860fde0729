package enrich_test

import (
	"errors"
	"testing"

	"github.com/okian/vtxana/internal/domain/enrich"
	"github.com/okian/vtxana/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func leg(pdg, trackID int) model.Particle {
	return model.Particle{PDG: pdg, Energy: 1, Track: model.Track{ID: trackID}}
}

func TestResolveLegs(t *testing.T) {
	Convey("Given a well-formed vertex", t, func() {
		Convey("When legs come electron first", func() {
			vtx := model.Vertex{Particles: []model.Particle{leg(11, 1), leg(-11, 2)}}
			legs, err := enrich.ResolveLegs(&vtx)

			So(err, ShouldBeNil)
			So(legs.Electron.Track.ID, ShouldEqual, 1)
			So(legs.Positron.Track.ID, ShouldEqual, 2)
		})

		Convey("When legs come positron first", func() {
			vtx := model.Vertex{Particles: []model.Particle{leg(-11, 2), leg(11, 1)}}
			legs, err := enrich.ResolveLegs(&vtx)

			Convey("Then the same pair is returned", func() {
				So(err, ShouldBeNil)
				So(legs.Electron.Track.ID, ShouldEqual, 1)
				So(legs.Positron.Track.ID, ShouldEqual, 2)
			})
		})

		Convey("When an extra particle with another code is attached", func() {
			vtx := model.Vertex{Particles: []model.Particle{leg(11, 1), leg(22, 9), leg(-11, 2)}}
			legs, err := enrich.ResolveLegs(&vtx)

			Convey("Then it is ignored and reported", func() {
				So(err, ShouldBeNil)
				So(legs.Ignored, ShouldResemble, []int{22})
				So(legs.Positron.Track.ID, ShouldEqual, 2)
			})
		})
	})

	Convey("Given malformed vertices", t, func() {
		cases := map[string][]model.Particle{
			"two electrons":     {leg(11, 1), leg(11, 2)},
			"muon and positron": {leg(13, 1), leg(-11, 2)},
			"two positrons":     {leg(-11, 1), leg(-11, 2), leg(11, 3)},
			"no legs":           nil,
		}
		for name, parts := range cases {
			Convey("When the vertex has "+name, func() {
				vtx := model.Vertex{Particles: parts}
				_, err := enrich.ResolveLegs(&vtx)
				So(errors.Is(err, enrich.ErrMalformedCandidate), ShouldBeTrue)
			})
		}
	})
}

func TestEnrichTrack(t *testing.T) {
	Convey("Given a full track collection", t, func() {
		full := []model.Track{
			{ID: 1, NShared: 2, SharedLy0: true},
			{ID: 2, NShared: 0},
			{ID: 3, NShared: 1, SharedLy1: true},
		}
		src := model.Track{ID: 3, TanLambda: 0.04, Chi2Ndf: 1.2}

		Convey("When the leg's track is found", func() {
			got, err := enrich.EnrichTrack(src, full)

			Convey("Then the shared-hit fields are copied onto a new value", func() {
				So(err, ShouldBeNil)
				So(got.NShared, ShouldEqual, 1)
				So(got.SharedLy0, ShouldBeFalse)
				So(got.SharedLy1, ShouldBeTrue)
				So(got.TanLambda, ShouldEqual, 0.04)
				So(got.Chi2Ndf, ShouldEqual, 1.2)
			})

			Convey("And the source record is unchanged", func() {
				So(src.NShared, ShouldEqual, 0)
				So(src.SharedLy1, ShouldBeFalse)
				So(full[2], ShouldResemble, model.Track{ID: 3, NShared: 1, SharedLy1: true})
			})
		})

		Convey("When enrichment runs twice", func() {
			idx := enrich.NewTrackIndex(full)
			a, errA := idx.Enrich(src)
			b, errB := idx.Enrich(src)

			Convey("Then the annotations are identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})

		Convey("When the identity is absent", func() {
			_, err := enrich.EnrichTrack(model.Track{ID: 42}, full)
			So(errors.Is(err, enrich.ErrTrackNotFound), ShouldBeTrue)
		})

		Convey("When the collection has duplicate identities", func() {
			idx := enrich.NewTrackIndex(append(full, model.Track{ID: 1, NShared: 5}))
			got, err := idx.Enrich(model.Track{ID: 1})

			Convey("Then the later entry wins", func() {
				So(err, ShouldBeNil)
				So(got.NShared, ShouldEqual, 5)
				So(idx.Len(), ShouldEqual, 3)
			})
		})
	})
}
