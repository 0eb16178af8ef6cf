package store

import (
	"context"
	"encoding/json"
	"time"
)

// Observer receives the outcome of every storage call.
type Observer interface {
	ObserveStore(op string, c Collection, d time.Duration, err error)
}

type observedStore struct {
	next Store
	obs  Observer
}

// WithObserver wraps s so that each Load and Save is reported to obs.
func WithObserver(s Store, obs Observer) Store {
	if obs == nil {
		return s
	}
	return &observedStore{next: s, obs: obs}
}

func (o *observedStore) Load(ctx context.Context, c Collection) (Snapshot, error) {
	start := time.Now()
	snap, err := o.next.Load(ctx, c)
	o.obs.ObserveStore("load", c, time.Since(start), err)
	return snap, err
}

func (o *observedStore) Save(ctx context.Context, c Collection, data json.RawMessage, expected int64) (int64, error) {
	start := time.Now()
	v, err := o.next.Save(ctx, c, data, expected)
	o.obs.ObserveStore("save", c, time.Since(start), err)
	return v, err
}

func (o *observedStore) Version(ctx context.Context, c Collection) (int64, error) {
	start := time.Now()
	v, err := o.next.Version(ctx, c)
	o.obs.ObserveStore("version", c, time.Since(start), err)
	return v, err
}
