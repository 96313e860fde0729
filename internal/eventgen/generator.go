// Package eventgen produces seeded synthetic events with a mix of clean,
// malformed and vetoed vertex candidates.
package eventgen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/vtxana/internal/domain/model"
	"github.com/okian/vtxana/pkg/logger"
)

// EventWriter receives generated events.
type EventWriter interface {
	Write(evt *model.Event) error
}

// Generator builds events one at a time from a seeded source.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	next  int
	stats Stats
}

// New creates a generator. Two generators with the same config produce the
// same event stream.
func New(cfg Config) *Generator {
	if cfg.MaxVertices < 0 {
		cfg.MaxVertices = 0
	}
	return &Generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		stats: Stats{StartTime: time.Now()},
	}
}

// Stats returns the counters accumulated so far.
func (g *Generator) Stats() Stats {
	return g.stats
}

// Next builds the next event.
func (g *Generator) Next() *model.Event {
	evt := &model.Event{
		Header: model.Header{
			RunNumber:      g.cfg.RunNumber,
			EventNumber:    g.next,
			Pair1Trigger:   g.rng.Float64() < g.cfg.Pair1Fraction,
			Single0Trigger: g.rng.IntN(2) == 0,
			Single1Trigger: g.rng.IntN(2) == 0,
		},
	}
	g.next++
	g.stats.EventsGenerated++
	if evt.Header.Pair1Trigger {
		g.stats.EventsWithPair1++
	}

	trackID := firstTrackID
	for range g.vertexCount() {
		vtx, tracks := g.vertex(&trackID)
		evt.Vertices = append(evt.Vertices, vtx)
		evt.Tracks = append(evt.Tracks, tracks...)
	}
	for range g.cfg.ExtraTracks {
		trk := g.track(trackID, g.rng.Float64() < 0.5)
		g.share(&trk)
		evt.Tracks = append(evt.Tracks, trk)
		trackID++
	}

	return evt
}

// vertexCount favours single-candidate events.
func (g *Generator) vertexCount() int {
	if g.cfg.MaxVertices == 0 {
		return 0
	}
	if g.rng.Float64() < 0.6 {
		return 1
	}
	return g.rng.IntN(g.cfg.MaxVertices + 1)
}

func (g *Generator) vertex(trackID *int) (model.Vertex, []model.Track) {
	g.stats.VerticesGenerated++

	eSum := math.Max(0.05, eSumMean+eSumSigma*g.rng.NormFloat64()) * g.cfg.BeamE
	share := minLegShare + legShareRange*g.rng.Float64()
	top := g.rng.Float64() < 0.5

	ele := g.particle(model.ElectronPDG, *trackID, eSum*share, top)
	pos := g.particle(model.PositronPDG, *trackID+1, eSum*(1-share), !top)
	*trackID += 2

	// A small share of pairs lands in the same detector half.
	if g.rng.Float64() < 0.1 {
		pos.Track.TanLambda = math.Copysign(pos.Track.TanLambda, ele.Track.TanLambda)
	}

	vtx := model.Vertex{
		Chi2: chi2Scale * g.rng.ExpFloat64(),
		Pos: [3]float64{
			vtxXYSigma * g.rng.NormFloat64(),
			vtxXYSigma * g.rng.NormFloat64(),
			vtxZMean + vtxZSigma*g.rng.NormFloat64(),
		},
		Particles: []model.Particle{ele, pos},
	}
	for i := range 3 {
		vtx.P[i] = ele.P[i] + pos.P[i]
	}
	vtx.InvM = invariantMass(ele, pos)

	tracks := make([]model.Track, 0, 2)
	eleTrk, posTrk := ele.Track, pos.Track
	g.share(&eleTrk)
	g.share(&posTrk)
	if g.rng.Float64() < g.cfg.MissingFraction {
		g.stats.TracksMissing++
	} else {
		tracks = append(tracks, eleTrk)
	}
	tracks = append(tracks, posTrk)

	if g.rng.Float64() < g.cfg.MalformedFraction {
		g.stats.VerticesMalformed++
		g.malform(&vtx)
	}

	return vtx, tracks
}

func (g *Generator) particle(pdg, trackID int, energy float64, top bool) model.Particle {
	trk := g.track(trackID, top)
	px := 0.03 * g.rng.NormFloat64() * energy
	py := trk.TanLambda * energy
	pz := math.Sqrt(math.Max(0, energy*energy-px*px-py*py))

	return model.Particle{
		PDG:    pdg,
		Energy: energy,
		P:      [3]float64{px, py, pz},
		Track:  trk,
		Cluster: model.Cluster{
			Time:   g.cfg.TimeOffset + trk.Time + clusterJitter*g.rng.NormFloat64(),
			Energy: energy * (0.85 + 0.1*g.rng.Float64()),
		},
		GoodnessOfPID: pidScale * g.rng.ExpFloat64(),
	}
}

// track builds a fitted track. Shared-hit fields stay unset; share fills them
// on the collection copy only.
func (g *Generator) track(id int, top bool) model.Track {
	tanLambda := tanLambdaMin + tanLambdaSpan*g.rng.Float64()
	if !top {
		tanLambda = -tanLambda
	}
	return model.Track{
		ID:        id,
		TanLambda: tanLambda,
		Chi2Ndf:   chi2NdfScale * g.rng.ExpFloat64(),
		Time:      trackTimeSigma * g.rng.NormFloat64(),
		D0:        0.5 * g.rng.NormFloat64(),
		Phi:       0.05 * g.rng.NormFloat64(),
		Omega:     0.0005 * g.rng.NormFloat64(),
		Z0:        0.3 * g.rng.NormFloat64(),
		NHits:     nHitsMin + g.rng.IntN(nHitsSpan+1),
	}
}

func (g *Generator) share(trk *model.Track) {
	if g.rng.Float64() >= g.cfg.SharedFraction {
		return
	}
	trk.NShared = 1 + g.rng.IntN(maxShared)
	trk.SharedLy0 = g.rng.IntN(2) == 0
	trk.SharedLy1 = !trk.SharedLy0 || g.rng.IntN(2) == 0
}

func (g *Generator) malform(vtx *model.Vertex) {
	switch g.rng.IntN(malformedKinds) {
	case malformedSameSign:
		vtx.Particles[1].PDG = model.ElectronPDG
	case malformedWrongPDG:
		vtx.Particles[0].PDG = 13
	case malformedNoLegs:
		vtx.Particles = nil
	}
}

// invariantMass treats both legs as massless.
func invariantMass(a, b model.Particle) float64 {
	e := a.Energy + b.Energy
	var p [3]float64
	for i := range 3 {
		p[i] = a.P[i] + b.P[i]
	}
	m2 := e*e - (p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if m2 < 0 {
		return 0
	}
	return math.Sqrt(m2)
}

// Generate writes cfg.NumEvents events to w and returns the run statistics.
func Generate(ctx context.Context, cfg Config, w EventWriter) (Stats, error) {
	logger.Get().Info(ctx, "generating synthetic events",
		logger.Int("events", cfg.NumEvents),
		logger.Any("seed", cfg.Seed),
		logger.Int("maxVertices", cfg.MaxVertices),
		logger.Float64("malformedFraction", cfg.MalformedFraction))

	g := New(cfg)
	for i := 0; i < cfg.NumEvents; i++ {
		if err := ctx.Err(); err != nil {
			return g.finish(), err
		}
		if err := w.Write(g.Next()); err != nil {
			return g.finish(), fmt.Errorf("write event %d: %w", i, err)
		}
	}

	stats := g.finish()
	logger.Get().Info(ctx, "event generation complete",
		logger.Int("events", stats.EventsGenerated),
		logger.Int("vertices", stats.VerticesGenerated),
		logger.Int("malformed", stats.VerticesMalformed),
		logger.Int("missingTracks", stats.TracksMissing),
		logger.String("duration", stats.Duration.String()))
	return stats, nil
}

func (g *Generator) finish() Stats {
	g.stats.EndTime = time.Now()
	g.stats.Duration = g.stats.EndTime.Sub(g.stats.StartTime)
	return g.stats
}
