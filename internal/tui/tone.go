package tui

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	toneSampleRate = beep.SampleRate(44100)
	toneFreq       = 880
	toneLength     = 50 * time.Millisecond
)

// Bell is notified on every caught pass.
type Bell interface {
	Ring()
}

// Tone rings a short sine beep through the speaker.
type Tone struct {
	sr beep.SampleRate
}

// NewTone opens the speaker. The returned Tone must be closed.
func NewTone() (*Tone, error) {
	if err := speaker.Init(toneSampleRate, toneSampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &Tone{sr: toneSampleRate}, nil
}

func (t *Tone) Ring() {
	sine, err := generators.SineTone(t.sr, toneFreq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(t.sr.N(toneLength), sine))
}

// Close releases the speaker.
func (t *Tone) Close() {
	speaker.Close()
}
