package enrich

import (
	"fmt"

	"github.com/okian/vtxana/internal/domain/model"
)

// TrackIndex looks tracks up by identity. It is built once per event and is
// read-only afterwards, so every region can share it.
type TrackIndex struct {
	byID map[int]model.Track
}

// NewTrackIndex indexes the event's full track collection. When two entries
// share an identity the later one wins.
func NewTrackIndex(tracks []model.Track) *TrackIndex {
	idx := &TrackIndex{byID: make(map[int]model.Track, len(tracks))}
	for _, t := range tracks {
		idx.byID[t.ID] = t
	}
	return idx
}

// Len returns the number of distinct identities.
func (idx *TrackIndex) Len() int { return len(idx.byID) }

// Enrich returns a copy of trk carrying the shared-hit annotations of the
// collection entry with the same identity.
func (idx *TrackIndex) Enrich(trk model.Track) (model.Track, error) {
	full, ok := idx.byID[trk.ID]
	if !ok {
		return trk, fmt.Errorf("%w: id %d", ErrTrackNotFound, trk.ID)
	}
	trk.NShared = full.NShared
	trk.SharedLy0 = full.SharedLy0
	trk.SharedLy1 = full.SharedLy1
	return trk, nil
}

// EnrichTrack is Enrich over an unindexed collection.
func EnrichTrack(trk model.Track, tracks []model.Track) (model.Track, error) {
	return NewTrackIndex(tracks).Enrich(trk)
}
