package parser

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus"
)

const (
	hitObjectsMarker = "[hitobjects]"
	holdFlag         = 1 << 7
	playfieldWidth   = 512

	// Largest time in milliseconds a note may have, with room left for end - start
	maxMillis = math.MaxInt64 / int64(time.Millisecond) / 2
)

// DefaultParser reads the hit objects of an osu!mania beatmap
type DefaultParser struct {
	Log logrus.FieldLogger

	// Reject x positions outside the playfield instead of placing them in lane 0
	StrictColumns bool
}

// columnFromX quantizes an x position into one of the four lanes
func columnFromX(x int) (int, bool) {
	if x < 0 || x >= playfieldWidth {
		return 0, false
	}
	return x * game.Columns / playfieldWidth, true
}

func inRange(ms int) bool {
	return int64(ms) <= maxMillis && int64(ms) >= -maxMillis
}

func splitKeyVal(line string) (string, string) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
}

func (p *DefaultParser) Parse(r io.Reader) (*game.Beatmap, error) {
	data, err := io.ReadAll(r)
	if nil != err {
		return nil, err
	}

	b := &game.Beatmap{
		KeyCount: game.Columns,
		Checksum: checksum(string(data)),
	}

	section := ""
	found := false
	notes := []*game.Note{}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r", ""), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(line)
			if section == hitObjectsMarker {
				found = true
			}
			continue
		}

		switch section {
		case "[general]":
			k, v := splitKeyVal(line)
			switch strings.ToLower(k) {
			case "audiofilename":
				b.AudioFilename = v
			case "audioleadin":
				if ms, err := strconv.Atoi(v); nil == err && ms > 0 {
					b.AudioLeadIn = time.Duration(ms) * time.Millisecond
				}
			}
		case "[metadata]":
			k, v := splitKeyVal(line)
			switch strings.ToLower(k) {
			case "title":
				b.Title = v
			case "artist":
				b.Artist = v
			case "version":
				b.Version = v
			}
		case "[difficulty]":
			k, v := splitKeyVal(line)
			if strings.EqualFold(k, "CircleSize") {
				if cs, err := strconv.ParseFloat(v, 64); nil == err {
					b.KeyCount = int(cs)
				}
			}
		case hitObjectsMarker:
			note, err := p.parseRecord(line, i+1)
			if nil != err {
				return nil, err
			}
			notes = append(notes, note)
		}
	}

	if !found || len(notes) == 0 {
		return nil, ErrNoHitObjects
	}
	if b.KeyCount != game.Columns {
		logger(p.Log).WithField("keys", b.KeyCount).Warn("beatmap is not a 4 key chart, playing it on 4 lanes")
	}

	b.Notes = finish(notes)
	return b, nil
}

// parseRecord reads x,y,time,typeFlags,hitSound[,extra...]
func (p *DefaultParser) parseRecord(line string, lineNumber int) (*game.Note, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 5 {
		return nil, &RecordError{Line: lineNumber, Reason: "expected at least 5 fields"}
	}

	fields := [5]int{}
	names := [5]string{"x", "y", "time", "type", "hitsound"}
	for i := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if nil != err {
			return nil, &RecordError{Line: lineNumber, Reason: "invalid " + names[i], Err: err}
		}
		fields[i] = v
	}
	x, hitTime, flags := fields[0], fields[2], fields[3]
	if !inRange(hitTime) {
		return nil, &RecordError{Line: lineNumber, Reason: "time " + parts[2] + " is out of range"}
	}

	column, ok := columnFromX(x)
	if !ok {
		if p.StrictColumns {
			return nil, &RecordError{Line: lineNumber, Reason: "x position " + strconv.Itoa(x) + " is outside the playfield"}
		}
		logger(p.Log).WithFields(logrus.Fields{"line": lineNumber, "x": x}).Warn("x position outside the playfield, using lane 0")
	}

	note := &game.Note{
		Column:  column,
		HitTime: time.Duration(hitTime) * time.Millisecond,
	}

	if flags&holdFlag != 0 {
		if len(parts) < 6 {
			return nil, &RecordError{Line: lineNumber, Reason: "hold note without an end time"}
		}
		// endTime:hitSample
		end := parts[5]
		if i := strings.IndexByte(end, ':'); i >= 0 {
			end = end[:i]
		}
		endTime, err := strconv.Atoi(strings.TrimSpace(end))
		if nil != err {
			return nil, &RecordError{Line: lineNumber, Reason: "invalid hold end time", Err: err}
		}
		if !inRange(endTime) {
			return nil, &RecordError{Line: lineNumber, Reason: "hold end time " + end + " is out of range"}
		}
		if endTime < hitTime {
			return nil, &RecordError{Line: lineNumber, Reason: "hold note ends before it starts"}
		}
		note.IsHold = true
		note.HoldDuration = time.Duration(endTime-hitTime) * time.Millisecond
	}

	return note, nil
}
