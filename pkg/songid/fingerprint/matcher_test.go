package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/songid/pkg/models"
)

func TestCreateAddressRoundTrip(t *testing.T) {
	anchor := Peak{FreqIdx: 300, Time: 1.0}
	target := Peak{FreqIdx: 42, Time: 1.5}

	hash, ok := createAddress(anchor, target)
	require.True(t, ok)

	a, b, d := SplitAddress(hash)
	assert.Equal(t, uint32(300), a)
	assert.Equal(t, uint32(42), b)
	assert.Equal(t, uint32(500), d)
}

func TestCreateAddressBounds(t *testing.T) {
	tests := []struct {
		name   string
		anchor Peak
		target Peak
	}{
		{"same frame", Peak{FreqIdx: 1, Time: 1}, Peak{FreqIdx: 2, Time: 1.005}},
		{"target before anchor", Peak{FreqIdx: 1, Time: 2}, Peak{FreqIdx: 2, Time: 1}},
		{"too far apart", Peak{FreqIdx: 1, Time: 0}, Peak{FreqIdx: 2, Time: 15.5}},
		{"bin overflow", Peak{FreqIdx: 512, Time: 0}, Peak{FreqIdx: 2, Time: 0.1}},
		{"negative bin", Peak{FreqIdx: -1, Time: 0}, Peak{FreqIdx: 2, Time: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := createAddress(tt.anchor, tt.target)
			assert.False(t, ok)
		})
	}
}

func TestFingerprintFanOut(t *testing.T) {
	peaks := make([]Peak, 10)
	for i := range peaks {
		peaks[i] = Peak{FreqIdx: 10 + i, Time: float64(i) * 0.1}
	}

	fp := Fingerprint(peaks, "song-a")

	total := 0
	for _, couples := range fp {
		for _, c := range couples {
			assert.Equal(t, "song-a", c.SongID)
		}
		total += len(couples)
	}
	// anchors 0..3 pair with 6 targets, then 5,4,3,2,1,0
	assert.Equal(t, 4*FanOut+5+4+3+2+1, total)
}

func TestQueryFingerprintsFindsOffset(t *testing.T) {
	song := make([]Peak, 40)
	for i := range song {
		song[i] = Peak{FreqIdx: (i * 37) % 400, Time: float64(i) * 0.05}
	}
	db := Fingerprint(song, "target")
	for h, c := range Fingerprint(song[:10], "decoy") {
		db[h] = append(db[h], c...)
	}

	// Query is the second half of the song, re-timed to start at zero.
	query := make([]Peak, 0, 20)
	for _, p := range song[20:] {
		p.Time -= 1.0
		query = append(query, p)
	}

	matches := QueryFingerprints(query, db)
	require.NotEmpty(t, matches)
	assert.Equal(t, "target", matches[0].SongID)
	assert.Equal(t, int32(1000), matches[0].OffsetMs)
	for _, m := range matches[1:] {
		assert.LessOrEqual(t, m.Count, matches[0].Count)
	}
}

func TestVoteDeterministicTies(t *testing.T) {
	query := map[uint32][]uint32{1: {0}, 2: {100}}
	db := map[uint32][]models.Couple{
		1: {{SongID: "b", AnchorTimeMs: 50}, {SongID: "a", AnchorTimeMs: 10}},
		2: {{SongID: "b", AnchorTimeMs: 150}, {SongID: "a", AnchorTimeMs: 110}},
	}

	matches := Vote(query, db)
	require.Len(t, matches, 2)
	assert.Equal(t, models.Match{SongID: "a", OffsetMs: 10, Count: 2}, matches[0])
	assert.Equal(t, models.Match{SongID: "b", OffsetMs: 50, Count: 2}, matches[1])
}

func TestQueryHashesCountsRepeats(t *testing.T) {
	peaks := []Peak{
		{FreqIdx: 5, Time: 0}, {FreqIdx: 9, Time: 0.1},
		{FreqIdx: 5, Time: 1}, {FreqIdx: 9, Time: 1.1},
	}
	q := QueryHashes(peaks)
	hash, _ := createAddress(peaks[0], peaks[1])
	assert.Equal(t, []uint32{0, 1000}, q[hash])
	assert.Equal(t, 6, CountHashes(q))
}
