// Package journal keeps an on-disk history of readings and dose events for
// the status page. Storage is bbolt: one bucket per record type, sequence
// keys, JSON values.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	readingsBucket = "ph_readings"
	dosesBucket    = "dose_events"
)

// ReadingRecord is one persisted pH measurement.
type ReadingRecord struct {
	TS      int64   `json:"ts"`
	PH      float64 `json:"ph"`
	Voltage float64 `json:"voltage"`
}

// DoseRecord is one persisted valve transition.
type DoseRecord struct {
	TS    int64  `json:"ts"`
	Valve string `json:"valve"`
	Event string `json:"event"`
}

// Journal is safe for use from the single control loop goroutine plus
// concurrent readers (bbolt handles its own locking).
type Journal struct {
	db *bolt.DB
}

// Open creates or opens the journal database and ensures buckets exist.
func Open(path string) (*Journal, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{readingsBucket, dosesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal buckets: %w", err)
	}
	return &Journal{db: db}, nil
}

// AppendReading records one measurement.
func (j *Journal) AppendReading(ts time.Time, ph, voltage float64) error {
	return j.append(readingsBucket, ReadingRecord{TS: ts.Unix(), PH: ph, Voltage: voltage})
}

// AppendDose records one valve transition.
func (j *Journal) AppendDose(ts time.Time, valve, event string) error {
	return j.append(dosesBucket, DoseRecord{TS: ts.Unix(), Valve: valve, Event: event})
}

func (j *Journal) append(bucket string, rec interface{}) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		value, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(key[:], value)
	})
}

// RecentReadings returns up to n most recent readings, oldest first.
func (j *Journal) RecentReadings(n int) ([]ReadingRecord, error) {
	var out []ReadingRecord
	err := j.recent(readingsBucket, n, func(v []byte) error {
		var rec ReadingRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// RecentDoses returns up to n most recent dose events, oldest first.
func (j *Journal) RecentDoses(n int) ([]DoseRecord, error) {
	var out []DoseRecord
	err := j.recent(dosesBucket, n, func(v []byte) error {
		var rec DoseRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// recent walks the last n records backwards, then hands them to fn oldest
// first so callers get chronological order.
func (j *Journal) recent(bucket string, n int, fn func(v []byte) error) error {
	if n <= 0 {
		return nil
	}
	return j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		var values [][]byte
		for k, v := c.Last(); k != nil && len(values) < n; k, v = c.Prev() {
			cp := make([]byte, len(v))
			copy(cp, v)
			values = append(values, cp)
		}
		for i := len(values) - 1; i >= 0; i-- {
			if err := fn(values[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
