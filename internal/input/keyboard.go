package input

import (
	"context"
	"fmt"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/eiannone/keyboard"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultReleaseAfter covers the gap between terminal key repeats
	DefaultReleaseAfter = 120 * time.Millisecond
	// DefaultRepeatDelay covers the usual delay before a held key starts repeating
	DefaultRepeatDelay = 600 * time.Millisecond
)

// Keyboard reads keys from the terminal. Terminals never report key releases,
// so a release is sent once a key has stopped repeating for ReleaseAfter.
// Until its first repeat a key is only released after RepeatDelay.
type Keyboard struct {
	ReleaseAfter time.Duration
	RepeatDelay  time.Duration
	Log          logrus.FieldLogger

	// Called when escape or ctrl-c is pressed
	Quit func()
}

type held struct {
	timer    *time.Timer
	gen      int
	repeated bool
}

type expiry struct {
	binding game.Binding
	gen     int
}

func (k *Keyboard) Run(ctx context.Context, out chan<- RawEvent) error {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	go func() {
		defer func() {
			if err := keyboard.Close(); nil != err {
				k.Log.WithError(err).Warn("unable to close keyboard")
			}
		}()
		if err := k.pump(ctx, keys, out); nil != err {
			k.Log.WithError(err).Error("keyboard input stopped")
		}
	}()
	return nil
}

func bindingOf(key keyboard.KeyEvent) game.Binding {
	if key.Key == keyboard.KeySpace {
		return " "
	}
	if key.Rune == 0 {
		return ""
	}
	return game.Binding(string(key.Rune))
}

func (k *Keyboard) pump(ctx context.Context, keys <-chan keyboard.KeyEvent, out chan<- RawEvent) error {
	after := k.ReleaseAfter
	if after <= 0 {
		after = DefaultReleaseAfter
	}
	delay := k.RepeatDelay
	if delay <= 0 {
		delay = DefaultRepeatDelay
	}

	down := map[game.Binding]*held{}
	expired := make(chan expiry, 16)
	defer func() {
		for _, h := range down {
			h.timer.Stop()
		}
	}()

	arm := func(b game.Binding, h *held) {
		gen := h.gen
		wait := delay
		if h.repeated {
			wait = after
		}
		h.timer = time.AfterFunc(wait, func() {
			select {
			case expired <- expiry{binding: b, gen: gen}:
			case <-ctx.Done():
			}
		})
	}
	send := func(ev RawEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			if nil != key.Err {
				return key.Err
			}
			if key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC {
				if nil != k.Quit {
					k.Quit()
				}
				return nil
			}
			b := bindingOf(key)
			if b == "" {
				continue
			}
			if h, ok := down[b]; ok {
				// A repeat, push the release back
				h.timer.Stop()
				h.gen++
				h.repeated = true
				arm(b, h)
				continue
			}
			h := &held{}
			down[b] = h
			arm(b, h)
			if !send(RawEvent{Binding: b, Transition: game.Press}) {
				return nil
			}
		case e := <-expired:
			h, ok := down[e.binding]
			if !ok || h.gen != e.gen {
				continue
			}
			delete(down, e.binding)
			if !send(RawEvent{Binding: e.binding, Transition: game.Release}) {
				return nil
			}
		}
	}
}
