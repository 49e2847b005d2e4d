// Package testsupport holds fixtures shared by songid tests.
package testsupport

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes interleaved 16-bit samples to path.
func WriteWAV(t testing.TB, path string, sampleRate, channels int, samples []int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
	return path
}

// Melody returns mono samples made of 60 ms notes, each a pair of tones picked
// from seed, scaled to 16-bit range. The same seed always yields the same audio.
func Melody(sampleRate int, seconds float64, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	total := int(seconds * float64(sampleRate))
	noteLen := sampleRate * 60 / 1000

	out := make([]int, total)
	var f1, f2 float64
	for i := 0; i < total; i++ {
		if i%noteLen == 0 {
			f1 = 300 + rng.Float64()*1500
			f2 = 1800 + rng.Float64()*2800
		}
		ts := float64(i) / float64(sampleRate)
		v := 0.45*math.Sin(2*math.Pi*f1*ts) + 0.35*math.Sin(2*math.Pi*f2*ts)
		out[i] = int(v * 32767 * 0.9)
	}
	return out
}

// WriteMelodyWAV writes Melody to dir/name as mono 16-bit PCM.
func WriteMelodyWAV(t testing.TB, dir, name string, sampleRate int, seconds float64, seed int64) string {
	t.Helper()
	return WriteWAV(t, filepath.Join(dir, name), sampleRate, 1, Melody(sampleRate, seconds, seed))
}
