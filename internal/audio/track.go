// Package audio plays the song a chart is timed against.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// ErrUnavailable is returned when the song cannot be decoded or played
var ErrUnavailable = errors.New("audio unavailable")

type Track struct {
	Path string

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	playing  bool
}

// Open decodes the header of an mp3, ogg or wav file
func Open(path string) (*Track, error) {
	f, err := os.Open(path)
	if nil != err {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		err = fmt.Errorf("unsupported format %v", filepath.Ext(path))
	}
	if nil != err {
		f.Close()
		return nil, fmt.Errorf("%w: unable to decode %v: %v", ErrUnavailable, path, err)
	}

	return &Track{
		Path:     path,
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
	}, nil
}

func (t *Track) Format() beep.Format {
	return t.format
}

// Prepare opens the output device with a buffer of one 60th of a second
func (t *Track) Prepare() error {
	if err := speaker.Init(t.format.SampleRate, t.format.SampleRate.N(time.Second/60)); nil != err {
		return fmt.Errorf("%w: unable to open speaker: %v", ErrUnavailable, err)
	}
	return nil
}

// Play starts the song from position 0
func (t *Track) Play() error {
	if t.playing {
		return nil
	}
	speaker.Lock()
	err := t.streamer.Seek(0)
	speaker.Unlock()
	if nil != err {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	t.playing = true
	speaker.Play(t.ctrl)
	return nil
}

// CurrentPlaybackTime is the position of the song, 0 before it starts
func (t *Track) CurrentPlaybackTime() time.Duration {
	if !t.playing {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.streamer.Position())
}

func (t *Track) Pause() {
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

func (t *Track) Resume() {
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
}

// Close stops playback and releases the file
func (t *Track) Close() error {
	if t.playing {
		speaker.Lock()
		// A nil streamer drops out of the mixer
		t.ctrl.Streamer = nil
		speaker.Unlock()
	}
	return t.streamer.Close()
}
