// Package persist stores serialized region records in a bbolt database.
//
// It is the persistence collaborator of the region controller: snapshots of
// SerializeAll go in, records for DeserializeAll (or ApplyExternalUpdate)
// come back out. Record order is preserved across a round trip so paint
// order (and hit-test precedence) survives reload.
package persist

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/region"
)

var (
	bucketRecords = []byte("records") // id -> record JSON
	bucketOrder   = []byte("order")   // seq -> id, preserves paint order
)

// Store is a bbolt-backed snapshot store for region records.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketOrder} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: initialize %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveSnapshot replaces the stored snapshot with recs, in order.
func (s *Store) SaveSnapshot(recs []region.Record) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketOrder} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		records := tx.Bucket(bucketRecords)
		order := tx.Bucket(bucketOrder)
		for _, rec := range recs {
			if err := putRecord(records, order, rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist: save snapshot: %w", err)
	}
	plotcore.Logger().Info("snapshot saved", "records", len(recs))
	return nil
}

// LoadSnapshot returns the stored records in their saved order.
func (s *Store) LoadSnapshot() ([]region.Record, error) {
	var out []region.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		return tx.Bucket(bucketOrder).ForEach(func(_, id []byte) error {
			v := records.Get(id)
			if v == nil {
				return nil // deleted since; order entry is stale
			}
			var rec region.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("record %s: %w", id, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("persist: load snapshot: %w", err)
	}
	plotcore.Logger().Info("snapshot loaded", "records", len(out))
	return out, nil
}

// SaveRecord writes one record incrementally, appending it to the paint
// order if its id is new.
func (s *Store) SaveRecord(rec region.Record) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		records := tx.Bucket(bucketRecords)
		order := tx.Bucket(bucketOrder)
		if records.Get([]byte(rec.ID)) != nil {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			return records.Put([]byte(rec.ID), data)
		}
		return putRecord(records, order, rec)
	})
	if err != nil {
		return fmt.Errorf("persist: save record %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteRecord removes one record and its order entry.
func (s *Store) DeleteRecord(id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRecords).Delete([]byte(id)); err != nil {
			return err
		}
		order := tx.Bucket(bucketOrder)
		c := order.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if string(v) == id {
				return order.Delete(k)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist: delete record %s: %w", id, err)
	}
	return nil
}

func putRecord(records, order *bolt.Bucket, rec region.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := records.Put([]byte(rec.ID), data); err != nil {
		return err
	}
	seq, err := order.NextSequence()
	if err != nil {
		return err
	}
	return order.Put(marshalSeq(seq), []byte(rec.ID))
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
