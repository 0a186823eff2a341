// Package position remembers the last playback position per subtitle file
// name for a limited time.
package position

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a stored position stays valid after a write.
const DefaultTTL = 30 * 24 * time.Hour

var ErrEmptyKey = errors.New("position key is empty")

// Store maps a subtitle file name to its last playback position. Expired and
// absent keys are indistinguishable: Get reports found=false for both.
type Store interface {
	Put(ctx context.Context, key string, ms int64) error
	Get(ctx context.Context, key string) (ms int64, found bool, err error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by stores that keep expired rows until purged.
type Purger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Record is the stored value.
type Record struct {
	LastSeekMs int64 `json:"lastSeekMs"`
}

func encodeRecord(ms int64) (string, error) {
	b, err := json.Marshal(Record{LastSeekMs: ms})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeRecord(s string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Record{}, fmt.Errorf("decode position record: %w", err)
	}
	return r, nil
}

// StorageError wraps a failure of the underlying storage medium. Callers
// should treat it as "no resume position available".
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("position %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Key: key, Err: err}
}

type options struct {
	ttl time.Duration
	now func() time.Time
}

type Option func(*options)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
