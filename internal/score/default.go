package score

import (
	"database/sql"
	"fmt"
	"time"

	"git.lost.host/meutraa/lanes/internal/game"
	_ "github.com/mattn/go-sqlite3"
)

// Journal keeps every lane input and judgement of a session in an in memory
// database. It is gone once the session closes.
type Journal struct {
	db *sql.DB
}

type ColumnReport struct {
	Column int
	Hits   int
	Misses int
	Mean   time.Duration // Mean signed offset of the hits
}

func OpenJournal() (*Journal, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is its own database
	db.SetMaxOpenConns(1)

	initStatement := `
	create table if not exists inputs
	  (
		  id integer not null primary key,
		  lane integer not null,
		  transition integer not null,
		  at integer not null
	  );
	create table if not exists outcomes
	  (
		  id integer not null primary key,
		  note integer not null,
		  lane integer not null,
		  part integer not null,
		  grade integer not null,
		  delta integer not null,
		  at integer not null
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("unable to create journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) RecordInput(ev game.LaneEvent) error {
	_, err := j.db.Exec("insert into inputs(lane, transition, at) values(?, ?, ?)",
		ev.Column, int(ev.Transition), int64(ev.At))
	return err
}

func (j *Journal) RecordOutcome(o game.Outcome) error {
	_, err := j.db.Exec("insert into outcomes(note, lane, part, grade, delta, at) values(?, ?, ?, ?, ?, ?)",
		o.NoteID, o.Column, int(o.Part), int(o.Grade), int64(o.Offset), int64(o.At))
	return err
}

// Inputs returns the recorded inputs in the order they were judged
func (j *Journal) Inputs() ([]game.LaneEvent, error) {
	rows, err := j.db.Query("select lane, transition, at from inputs order by id")
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	inputs := []game.LaneEvent{}
	for rows.Next() {
		var lane, transition int
		var at int64
		if err := rows.Scan(&lane, &transition, &at); nil != err {
			return nil, err
		}
		inputs = append(inputs, game.LaneEvent{
			Column:     lane,
			Transition: game.Transition(transition),
			At:         time.Duration(at),
		})
	}
	return inputs, rows.Err()
}

// Report summarises the judgements of each lane
func (j *Journal) Report() ([]ColumnReport, error) {
	rows, err := j.db.Query(`
	select lane,
	       sum(case when grade != ? then 1 else 0 end),
	       sum(case when grade = ? then 1 else 0 end),
	       coalesce(avg(case when grade != ? then delta end), 0)
	from outcomes
	group by lane
	order by lane`, int(game.Miss), int(game.Miss), int(game.Miss))
	if nil != err {
		return nil, err
	}
	defer rows.Close()

	reports := []ColumnReport{}
	for rows.Next() {
		var r ColumnReport
		var mean float64
		if err := rows.Scan(&r.Column, &r.Hits, &r.Misses, &mean); nil != err {
			return nil, err
		}
		r.Mean = time.Duration(mean)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
