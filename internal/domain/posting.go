package domain

import "time"

// Source tags one supported job board or aggregator.
type Source string

const (
	SourceDrushim    Source = "drushim"
	SourceGotFriends Source = "gotfriends"
	SourceIndeed     Source = "indeed"
	SourceGoogleJobs Source = "googlejobs"
	SourceEmailAlert Source = "emailalert"
)

// Unknown is the sentinel for optional posting fields a source did not supply.
const Unknown = "Unknown"

// Posting is the canonical record every source is normalized into.
// Immutable after normalization.
type Posting struct {
	Source      Source
	ExternalID  string // source-native id, or derived (see searchutil.DeriveExternalID)
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
	PostedAt    *time.Time // nullable, best-effort
	FetchedAt   time.Time
}

// Identity is the (source, external_id) pair used for deduplication.
// Stable across repeated fetches of the same real-world listing.
type Identity struct {
	Source     Source
	ExternalID string
}

func (p Posting) Identity() Identity {
	return Identity{Source: p.Source, ExternalID: p.ExternalID}
}
