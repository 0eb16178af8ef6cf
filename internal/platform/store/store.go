// Package store persists the clinic's entity collections. Each collection is
// read and written as a whole, and every successful write advances a version
// token so a writer holding a stale snapshot is rejected instead of silently
// overwriting a concurrent change.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collection names a logical collection.
type Collection string

const (
	Patients      Collection = "patients"
	Appointments  Collection = "appointments"
	Prescriptions Collection = "prescriptions"
	Reports       Collection = "reports"
	MedicineBills Collection = "medicineBills"
	HospitalBills Collection = "hospitalBills"
)

// Collections lists every known collection in a stable order.
var Collections = []Collection{Patients, Appointments, Prescriptions, Reports, MedicineBills, HospitalBills}

var (
	ErrVersionConflict   = errors.New("collection was modified by another writer")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// Snapshot is the raw content of a collection at a given version. A
// collection that has never been written has Version 0 and nil Data.
type Snapshot struct {
	Data      json.RawMessage
	Version   int64
	UpdatedAt time.Time
}

// Store is the contract for collection storage backends.
//
// Save succeeds only when expected equals the collection's current version;
// it returns the new version.
type Store interface {
	Load(ctx context.Context, c Collection) (Snapshot, error)
	Save(ctx context.Context, c Collection, data json.RawMessage, expected int64) (int64, error)
	Version(ctx context.Context, c Collection) (int64, error)
}

// Load decodes collection c into a slice of T.
func Load[T any](ctx context.Context, s Store, c Collection) ([]T, int64, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", c, err)
	}
	items := []T{}
	if len(snap.Data) == 0 {
		return items, snap.Version, nil
	}
	if err := json.Unmarshal(snap.Data, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", c, err)
	}
	return items, snap.Version, nil
}

// Save encodes items and writes them as the new content of collection c.
func Save[T any](ctx context.Context, s Store, c Collection, items []T, expected int64) (int64, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", c, err)
	}
	v, err := s.Save(ctx, c, data, expected)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", c, err)
	}
	return v, nil
}

// Update runs a single read-modify-write cycle on collection c. A concurrent
// writer surfaces as ErrVersionConflict; the cycle is not retried.
func Update[T any](ctx context.Context, s Store, c Collection, fn func([]T) ([]T, error)) error {
	items, version, err := Load[T](ctx, s, c)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	_, err = Save(ctx, s, c, next, version)
	return err
}
