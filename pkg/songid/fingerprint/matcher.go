package fingerprint

import (
	"sort"

	"github.com/himanishpuri/songid/pkg/models"
)

// pairs calls fn for every anchor/target pair allowed by the fan-out rules.
// peaks must be sorted by time.
func pairs(peaks []Peak, fn func(hash uint32, anchor Peak)) {
	for i := 0; i < len(peaks); i++ {
		anchor := peaks[i]
		paired := 0
		for j := i + 1; j < len(peaks) && paired < FanOut; j++ {
			addr, ok := createAddress(anchor, peaks[j])
			if !ok {
				continue
			}
			fn(addr, anchor)
			paired++
		}
	}
}

func sortedByTime(peaks []Peak) []Peak {
	out := make([]Peak, len(peaks))
	copy(out, peaks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Fingerprint produces hash -> []Couple for a song's peaks.
func Fingerprint(peaks []Peak, songID string) map[uint32][]models.Couple {
	fp := make(map[uint32][]models.Couple)
	pairs(sortedByTime(peaks), func(hash uint32, anchor Peak) {
		fp[hash] = append(fp[hash], models.Couple{SongID: songID, AnchorTimeMs: anchorMs(anchor)})
	})
	return fp
}

// QueryHashes lists the query's hashes with every anchor time they occur at.
func QueryHashes(peaks []Peak) map[uint32][]uint32 {
	out := make(map[uint32][]uint32)
	pairs(sortedByTime(peaks), func(hash uint32, anchor Peak) {
		out[hash] = append(out[hash], anchorMs(anchor))
	})
	return out
}

// Vote aligns query hashes against database couples and returns one Match per
// song at its most common offset, best first. Ties on count break by song ID
// so results are deterministic.
func Vote(query map[uint32][]uint32, db map[uint32][]models.Couple) []models.Match {
	votes := make(map[string]map[int32]int)

	for hash, queryTimes := range query {
		bucket, ok := db[hash]
		if !ok {
			continue
		}
		for _, qt := range queryTimes {
			for _, cou := range bucket {
				offset := int32(cou.AnchorTimeMs) - int32(qt)
				m, ok := votes[cou.SongID]
				if !ok {
					m = make(map[int32]int)
					votes[cou.SongID] = m
				}
				m[offset]++
			}
		}
	}

	matches := make([]models.Match, 0, len(votes))
	for songID, offsets := range votes {
		best := models.Match{SongID: songID}
		for off, cnt := range offsets {
			if cnt > best.Count || (cnt == best.Count && off < best.OffsetMs) {
				best.Count = cnt
				best.OffsetMs = off
			}
		}
		if best.Count > 0 {
			matches = append(matches, best)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Count == matches[j].Count {
			return matches[i].SongID < matches[j].SongID
		}
		return matches[i].Count > matches[j].Count
	})
	return matches
}

// QueryFingerprints is Vote over the hashes generated from queryPeaks.
func QueryFingerprints(queryPeaks []Peak, db map[uint32][]models.Couple) []models.Match {
	return Vote(QueryHashes(queryPeaks), db)
}

// CountHashes returns the number of hash occurrences in a fingerprint map.
func CountHashes(fp map[uint32][]uint32) int {
	n := 0
	for _, times := range fp {
		n += len(times)
	}
	return n
}
