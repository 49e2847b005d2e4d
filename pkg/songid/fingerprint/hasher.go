package fingerprint

import "math"

// Hash layout: [anchorFreq 9 bits | targetFreq 9 bits | deltaMs 14 bits].
const (
	MaxFreqBits  = 9
	MaxDeltaBits = 14
	FanOut       = 6
	MinDeltaMs   = 10
	MaxDeltaMs   = 15000
)

const (
	freqMask  = uint32(1<<MaxFreqBits) - 1
	deltaMask = uint32(1<<MaxDeltaBits) - 1
)

func createAddress(anchor Peak, target Peak) (uint32, bool) {
	if anchor.FreqIdx < 0 || target.FreqIdx < 0 {
		return 0, false
	}
	anchorFreq := uint32(anchor.FreqIdx)
	targetFreq := uint32(target.FreqIdx)

	delta := math.Round((target.Time - anchor.Time) * 1000.0)
	if delta < MinDeltaMs || delta > MaxDeltaMs {
		return 0, false
	}
	deltaMs := uint32(delta)

	if anchorFreq > freqMask || targetFreq > freqMask || deltaMs > deltaMask {
		return 0, false
	}

	shiftTarget := MaxDeltaBits
	shiftAnchor := MaxDeltaBits + MaxFreqBits

	return (anchorFreq << shiftAnchor) | (targetFreq << shiftTarget) | deltaMs, true
}

// SplitAddress unpacks a hash into its anchor bin, target bin and delta.
func SplitAddress(hash uint32) (anchorFreq, targetFreq, deltaMs uint32) {
	return (hash >> (MaxDeltaBits + MaxFreqBits)) & freqMask,
		(hash >> MaxDeltaBits) & freqMask,
		hash & deltaMask
}

func anchorMs(p Peak) uint32 {
	return uint32(math.Round(p.Time * 1000.0))
}
