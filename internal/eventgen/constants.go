package eventgen

// Leg kinematics in GeV and mm.
const (
	eSumMean      = 0.85
	eSumSigma     = 0.12
	minLegShare   = 0.2
	legShareRange = 0.6
	vtxZMean      = -4.3
	vtxZSigma     = 3.0
	vtxXYSigma    = 0.2
	tanLambdaMin  = 0.01
	tanLambdaSpan = 0.05
)

// Detector response.
const (
	trackTimeSigma = 2.0
	clusterJitter  = 1.0
	chi2Scale      = 3.0
	chi2NdfScale   = 1.5
	pidScale       = 3.0
	nHitsMin       = 5
	nHitsSpan      = 2
	maxShared      = 3
	firstTrackID   = 1
)

// Malformed leg lists emitted for broken vertices.
const (
	malformedSameSign = iota
	malformedWrongPDG
	malformedNoLegs
	malformedKinds
)
