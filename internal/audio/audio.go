// Package audio plays the song with beep and exposes the playback position
// as the clock source for the conductor.
package audio

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

// Find walks dir for an audio file and a chart file. Grid charts win over .sm
// when both exist.
func Find(dir string) (audioFile, chartFile string, err error) {
	var sm, grid string
	if err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if nil != err {
			return err
		}
		switch strings.ToLower(filepath.Ext(info.Name())) {
		case ".ogg", ".mp3", ".wav":
			audioFile = p
		case ".sm":
			sm = p
		case ".json":
			grid = p
		}
		return nil
	}); nil != err {
		return "", "", errors.Wrap(err, "unable to walk song directory")
	}
	chartFile = sm
	if grid != "" {
		chartFile = grid
	}
	if audioFile == "" || chartFile == "" {
		return "", "", errors.Errorf("unable to find a chart and an audio file in %s", dir)
	}
	return audioFile, chartFile, nil
}

// Track is a decoded song. Its stream position is the authoritative clock.
type Track struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl

	started bool
	done    bool
}

func Open(file string) (*Track, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, errors.Wrap(err, "unable to open audio")
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if nil != err {
		f.Close()
		return nil, errors.Wrapf(err, "unable to decode %s", file)
	}
	return &Track{
		streamer: streamer,
		format:   format,
		ctrl:     &beep.Ctrl{Streamer: streamer},
	}, nil
}

// Init opens the speaker at the track's sample rate.
func (t *Track) Init() error {
	return speaker.Init(t.format.SampleRate, t.format.SampleRate.N(time.Second/60))
}

// Play starts playback after delay, from a new goroutine like the speaker
// expects.
func (t *Track) Play(delay time.Duration) {
	go func() {
		time.Sleep(delay)
		speaker.Lock()
		t.started = true
		t.done = false
		speaker.Unlock()
		speaker.Play(beep.Seq(t.ctrl, beep.Callback(func() {
			speaker.Lock()
			t.done = true
			speaker.Unlock()
		})))
	}()
}

// Restart stops playback and seeks to the beginning, Play starts it again.
func (t *Track) Restart() error {
	speaker.Clear()
	speaker.Lock()
	defer speaker.Unlock()
	t.started = false
	t.done = false
	t.ctrl.Paused = false
	return t.streamer.Seek(0)
}

func (t *Track) Pause(paused bool) {
	speaker.Lock()
	t.ctrl.Paused = paused
	speaker.Unlock()
}

func (t *Track) Playing() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return t.started && !t.done && !t.ctrl.Paused
}

// Time is the position of the stream, it only moves while samples are pulled.
func (t *Track) Time() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return t.format.SampleRate.D(t.streamer.Position())
}

func (t *Track) Length() time.Duration {
	return t.format.SampleRate.D(t.streamer.Len())
}

func (t *Track) Close() error {
	speaker.Clear()
	return t.streamer.Close()
}
