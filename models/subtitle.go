package models

// Subtitle is a single transcript cue. Within one sequence StartTime is
// non-decreasing and End of entry i equals StartTime of entry i+1 for all but
// the last entry.
type Subtitle struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"startTime"` // seconds
	End       float64 `json:"end"`       // seconds
	Text      string  `json:"text"`
}

// CloneSubtitles returns a copy of subs that shares no backing array with it.
func CloneSubtitles(subs []Subtitle) []Subtitle {
	if subs == nil {
		return nil
	}
	out := make([]Subtitle, len(subs))
	copy(out, subs)
	return out
}

// RecomputeEnds rewrites every non-last End to the next entry's StartTime.
func RecomputeEnds(subs []Subtitle) {
	for i := 0; i < len(subs)-1; i++ {
		subs[i].End = subs[i+1].StartTime
	}
}
