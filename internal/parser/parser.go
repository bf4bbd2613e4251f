package parser

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoHitObjects    = errors.New("beatmap has no hit objects")
	ErrMalformedRecord = errors.New("malformed beatmap record")
)

type Parser interface {
	Parse(r io.Reader) (*game.Beatmap, error)
}

// RecordError reports the line of a beatmap that could not be parsed.
// It matches ErrMalformedRecord.
type RecordError struct {
	Line   int
	Reason string
	Err    error
}

func (e *RecordError) Error() string {
	msg := fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	if nil != e.Err {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ForFile picks a parser from the chart's file extension
func ForFile(file string, log logrus.FieldLogger, strictColumns bool, difficulty string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".osu":
		return &DefaultParser{Log: log, StrictColumns: strictColumns}, nil
	case ".sm":
		return &SMParser{Log: log, Difficulty: difficulty}, nil
	}
	return nil, fmt.Errorf("unsupported chart format %q", filepath.Ext(file))
}

func ParseFile(p Parser, file string) (*game.Beatmap, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()

	b, err := p.Parse(f)
	if nil != err {
		return nil, fmt.Errorf("unable to parse %v: %w", filepath.Base(file), err)
	}
	return b, nil
}

// finish orders notes by hit time, ties broken by column, and numbers them
func finish(notes []*game.Note) []*game.Note {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].HitTime != notes[j].HitTime {
			return notes[i].HitTime < notes[j].HitTime
		}
		return notes[i].Column < notes[j].Column
	})
	for i, n := range notes {
		n.ID = i
	}
	return notes
}

func checksum(data string) string {
	sum := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if nil == l {
		return logrus.StandardLogger()
	}
	return l
}
