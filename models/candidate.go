package models

// Tier classifies a refresh candidate at selection time.
type Tier int

const (
	TierCurated  Tier = 1
	TierMomentum Tier = 2
)

func (t Tier) String() string {
	switch t {
	case TierCurated:
		return "curated"
	case TierMomentum:
		return "momentum"
	}
	return "unknown"
}

// Candidate is a video chosen for a statistics refresh.
type Candidate struct {
	VideoID   string
	Tier      Tier
	ViewCount int64
	Score     int64
}

// CandidateIDs extracts ids preserving order.
func CandidateIDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.VideoID
	}
	return ids
}
