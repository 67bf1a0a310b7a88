package graph

import (
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Sink abstracts the terminal playback device so the graph can run
// headless in tests. Lock and Unlock bracket live mutations of streamer
// parameters (volume, pause flag, equalizer gains), exactly like the
// speaker's own locking contract.
type Sink interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// SpeakerSink plays through the default audio device. Init is applied once
// per sample rate; reinitializing with the same rate is a no-op so that
// successive sources reuse the device.
type SpeakerSink struct {
	rate beep.SampleRate
}

// NewSpeakerSink returns an uninitialized speaker sink.
func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{}
}

func (s *SpeakerSink) Init(sampleRate beep.SampleRate, bufferSize int) error {
	if s.rate == sampleRate {
		return nil
	}
	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return err
	}
	s.rate = sampleRate
	return nil
}

func (s *SpeakerSink) Play(streamer beep.Streamer) {
	speaker.Play(streamer)
}

func (s *SpeakerSink) Clear() {
	speaker.Clear()
}

func (s *SpeakerSink) Lock() {
	speaker.Lock()
}

func (s *SpeakerSink) Unlock() {
	speaker.Unlock()
}
