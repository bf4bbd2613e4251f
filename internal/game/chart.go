package game

import "time"

type Beatmap struct {
	Title         string
	Artist        string
	Version       string // The difficulty name
	AudioFilename string
	AudioLeadIn   time.Duration
	KeyCount      int
	Checksum      string
	Notes         []*Note
}

func (b *Beatmap) HoldCount() int {
	count := 0
	for _, n := range b.Notes {
		if n.IsHold {
			count++
		}
	}
	return count
}

// Fresh copies the beatmap with every note back in its Pending state
func (b *Beatmap) Fresh() *Beatmap {
	c := *b
	c.Notes = make([]*Note, len(b.Notes))
	for i, n := range b.Notes {
		c.Notes[i] = n.Fresh()
	}
	return &c
}

// End is the last moment any note of the chart can be judged at
func (b *Beatmap) End(w Windows) time.Duration {
	end := time.Duration(0)
	for _, n := range b.Notes {
		e := n.ExpireAt(w)
		if n.IsHold && n.TailExpireAt(w) > e {
			e = n.TailExpireAt(w)
		}
		if e > end {
			end = e
		}
	}
	return end
}
