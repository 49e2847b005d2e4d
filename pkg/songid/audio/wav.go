package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWavAsFloat64 decodes a PCM WAV file and returns mono samples normalised
// to [-1, 1] together with the sample rate. Multi-channel input is averaged.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid PCM WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM samples: %w", err)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		return nil, 0, errors.New("wav header reports no channels")
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	scale := 1.0 / float64(int64(1)<<uint(bitDepth-1))
	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		out[i] = sum / float64(channels) * scale
	}

	return out, int(dec.SampleRate), nil
}
