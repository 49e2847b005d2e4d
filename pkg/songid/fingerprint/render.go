package fingerprint

import (
	"errors"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"
)

// RenderSpectrogramPNG draws a linear-magnitude FFT spectrogram of samples to
// a width x height PNG at outPath.
func RenderSpectrogramPNG(samples []float64, sampleRate, width, height int, outPath string) error {
	if len(samples) == 0 {
		return errors.New("samples cannot be empty")
	}
	if width <= 0 || height <= 0 {
		return errors.New("image dimensions must be positive")
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(spectrogram.ParseColor("000000")), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(height),
		false, // Hamming window
		false, // FFT, not DFT
		true,  // magnitude
		false, // linear scale
	)

	return spectrogram.SavePng(img, outPath)
}
