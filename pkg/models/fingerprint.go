package models

// Couple is the stored value for a hash bucket entry.
// AnchorTimeMs is the time (in ms) of the anchor peak in the source audio.
type Couple struct {
	SongID       string
	AnchorTimeMs uint32
}

// Match is a candidate produced by offset voting.
type Match struct {
	SongID   string
	OffsetMs int32 // dbAnchorTimeMs - queryAnchorTimeMs
	Count    int
}
