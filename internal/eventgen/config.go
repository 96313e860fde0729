package eventgen

import "time"

// Config holds configuration for synthetic event generation.
type Config struct {
	NumEvents   int     // Number of events to generate
	Seed        uint64  // Seed of the generator; equal seeds give equal events
	RunNumber   int     // Run number stamped on every header
	BeamE       float64 // Beam energy in GeV
	TimeOffset  float64 // Calorimeter time offset in ns
	MaxVertices int     // Upper bound on vertex candidates per event

	Pair1Fraction     float64 // Share of events with the pair1 trigger set
	MalformedFraction float64 // Share of vertices with a broken leg list
	MissingFraction   float64 // Share of vertices whose electron track is dropped from the collection
	SharedFraction    float64 // Share of tracks flagged with shared hits
	ExtraTracks       int     // Unassociated tracks added per event
}

// DefaultConfig returns a config that yields a realistic mix of clean,
// malformed and vetoed candidates.
func DefaultConfig() Config {
	return Config{
		NumEvents:         1000,
		Seed:              1,
		RunNumber:         10000,
		BeamE:             2.3,
		TimeOffset:        43,
		MaxVertices:       3,
		Pair1Fraction:     0.8,
		MalformedFraction: 0.05,
		MissingFraction:   0.02,
		SharedFraction:    0.1,
		ExtraTracks:       2,
	}
}

// Stats holds generation statistics.
type Stats struct {
	EventsGenerated   int
	VerticesGenerated int
	VerticesMalformed int
	TracksMissing     int
	EventsWithPair1   int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
