package input

import (
	"context"
	"encoding/binary"
	"io"
	"os"

	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus"
)

const evKey = 0x01

// keyEvent is struct input_event on 64 bit linux
type keyEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
var evdevNames = map[uint16]game.Binding{
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l", 39: ";",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m", 57: " ",
}

// Decode reads input events from r and sends key transitions until r fails
// or ctx ends. Auto repeat events are skipped.
func Decode(ctx context.Context, r io.Reader, out chan<- RawEvent) error {
	var ev keyEvent
	for {
		if err := binary.Read(r, binary.LittleEndian, &ev); nil != err {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if ev.Type != evKey || ev.Value > 1 {
			continue
		}
		binding, ok := evdevNames[ev.Code]
		if !ok {
			continue
		}
		transition := game.Press
		if ev.Value == 0 {
			transition = game.Release
		}
		select {
		case out <- RawEvent{Binding: binding, Transition: transition}:
		case <-ctx.Done():
			return nil
		}
	}
}

// ReadEvdev reads a keyboard device such as /dev/input/event3.
// Unlike a terminal this reports real key releases, so holds can be played.
func ReadEvdev(ctx context.Context, device string, log logrus.FieldLogger, out chan<- RawEvent) error {
	file, err := os.Open(device)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		file.Close()
	}()
	go func() {
		if err := Decode(ctx, file, out); nil != err && ctx.Err() == nil {
			log.WithError(err).Error("unable to read keyboard input")
		}
	}()
	return nil
}
