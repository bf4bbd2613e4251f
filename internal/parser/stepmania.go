package parser

import (
	"io"
	"strconv"
	"strings"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	"github.com/sirupsen/logrus"
)

// SMParser reads dance-single charts from StepMania .sm files
type SMParser struct {
	Log logrus.FieldLogger

	// Name of the difficulty to play, the first 4 key chart when empty
	Difficulty string
}

type bpm struct {
	StartingBeat float64
	Value        float64
}

// 0 – No note
// 1 – Normal note
// 2 – Hold head
// 3 – Hold/Roll tail
// 4 – Roll head
// M – Mine (or other negative note)
// K – Automatic keysound
// L – Lift note
// F – Fake note

func secondsPerLine(rates []bpm, currentBeat float64, beatsPerLine float64) float64 {
	sel := rates[0].Value
	for _, r := range rates {
		if currentBeat >= r.StartingBeat {
			sel = r.Value
		} else {
			break
		}
	}
	return beatsPerLine * 60.0 / sel
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (p *SMParser) parseMeta(meta string, b *game.Beatmap) (float64, []bpm, error) {
	offset := 0.0
	rates := []bpm{}

	for _, tag := range strings.Split(meta, "\n#") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		tag = strings.TrimSuffix(tag, ";")
		k, v := splitKeyVal(tag)
		switch strings.ToUpper(k) {
		case "TITLE":
			b.Title = v
		case "ARTIST":
			b.Artist = v
		case "MUSIC":
			b.AudioFilename = v
		case "OFFSET":
			offs, err := strconv.ParseFloat(v, 64)
			if nil != err {
				return 0, nil, &RecordError{Reason: "invalid #OFFSET", Err: err}
			}
			offset = -offs
		case "BPMS":
			for _, pair := range strings.Split(strings.ReplaceAll(v, "\n", ""), ",") {
				as := strings.Split(pair, "=")
				if len(as) != 2 {
					return 0, nil, &RecordError{Reason: "invalid #BPMS entry " + strconv.Quote(pair)}
				}
				beat, err := strconv.ParseFloat(strings.TrimSpace(as[0]), 64)
				if nil != err {
					return 0, nil, &RecordError{Reason: "invalid #BPMS beat", Err: err}
				}
				value, err := strconv.ParseFloat(strings.TrimSpace(as[1]), 64)
				if nil != err || value <= 0 {
					return 0, nil, &RecordError{Reason: "invalid #BPMS value " + strconv.Quote(as[1]), Err: err}
				}
				rates = append(rates, bpm{StartingBeat: beat, Value: value})
			}
		}
	}

	if len(rates) == 0 {
		return 0, nil, &RecordError{Reason: "missing #BPMS"}
	}
	return offset, rates, nil
}

func (p *SMParser) difficulties(sections []string) []game.Difficulty {
	difficulties := []game.Difficulty{}
	for _, section := range sections {
		lines := strings.SplitN(section, "\n", 7)
		if len(lines) < 7 {
			continue
		}
		chartType := strings.TrimSuffix(strings.TrimSpace(lines[1]), ":")
		nKeys, ok := game.NKeyMap[chartType]
		if !ok || int(nKeys) != game.Columns {
			continue
		}
		difficulties = append(difficulties, game.Difficulty{
			Name:    strings.TrimSuffix(strings.TrimSpace(lines[3]), ":"),
			Meter:   strings.TrimSuffix(strings.TrimSpace(lines[4]), ":"),
			Section: lines[6],
			NKeys:   nKeys,
		})
	}
	return difficulties
}

func (p *SMParser) Parse(r io.Reader) (*game.Beatmap, error) {
	data, err := io.ReadAll(r)
	if nil != err {
		return nil, err
	}

	str := strings.ReplaceAll(string(data), "\r", "")
	sections := strings.Split(str, "#NOTES:")

	b := &game.Beatmap{KeyCount: game.Columns}
	offset, rates, err := p.parseMeta(sections[0], b)
	if nil != err {
		return nil, err
	}

	var difficulty *game.Difficulty
	for _, d := range p.difficulties(sections[1:]) {
		if p.Difficulty == "" || strings.EqualFold(p.Difficulty, d.Name) {
			d := d
			difficulty = &d
			break
		}
	}
	if nil == difficulty {
		return nil, ErrNoHitObjects
	}
	b.Version = difficulty.Name
	b.Checksum = checksum(difficulty.Section)

	notes := []*game.Note{}
	// The most recent unfinished hold head in each column
	heads := [game.Columns]*game.Note{}
	position := offset
	currentBeat := 0.0

	for m, measure := range strings.Split(difficulty.Section, "\n,") {
		lines := []string{}
		for _, l := range strings.Split(measure, "\n") {
			if i := strings.Index(l, "//"); i >= 0 {
				l = l[:i]
			}
			l = strings.TrimSuffix(strings.TrimSpace(l), ";")
			if len(l) == game.Columns {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		// Beat count is 4 per measure
		beatsPerLine := 4.0 / float64(len(lines))

		for _, line := range lines {
			at := seconds(position)
			for column, c := range []byte(line) {
				switch c {
				case '0', 'M', 'K', 'L', 'F':
				case '1':
					notes = append(notes, &game.Note{Column: column, HitTime: at})
				case '2', '4':
					n := &game.Note{Column: column, HitTime: at, IsHold: true}
					heads[column] = n
					notes = append(notes, n)
				case '3':
					head := heads[column]
					if nil == head {
						return nil, &RecordError{Line: m + 1, Reason: "hold tail without a head in column " + strconv.Itoa(column)}
					}
					head.HoldDuration = at - head.HitTime
					heads[column] = nil
				default:
					return nil, &RecordError{Line: m + 1, Reason: "unknown note type " + strconv.QuoteRune(rune(c))}
				}
			}

			position += secondsPerLine(rates, currentBeat, beatsPerLine)
			currentBeat += beatsPerLine
		}
	}

	for column, head := range heads {
		if nil != head {
			return nil, &RecordError{Reason: "hold in column " + strconv.Itoa(column) + " is never released"}
		}
	}
	if len(notes) == 0 {
		return nil, ErrNoHitObjects
	}

	logger(p.Log).WithFields(logrus.Fields{
		"difficulty": difficulty.Name,
		"meter":      difficulty.Meter,
		"notes":      len(notes),
	}).Debug("parsed stepmania chart")

	b.Notes = finish(notes)
	return b, nil
}
