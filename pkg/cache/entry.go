package cache

import (
	"encoding/json"
	"errors"
	"time"
)

// FormatVersion identifies the envelope layout and the graph encoding inside
// it. Entries written under another version read as misses.
const FormatVersion = 1

// entry is the envelope every backend stores around a cached graph. The key
// is stored alongside the payload so an entry found under the wrong key, for
// example after a shard collision, is never served.
type entry struct {
	Version   int       `json:"v"`
	Key       string    `json:"key"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Data      []byte    `json:"data"`
}

var (
	errStale    = errors.New("cache entry has another format version")
	errMisfiled = errors.New("cache entry belongs to another key")
	errExpired  = errors.New("cache entry expired")
)

func newEntry(key string, data []byte, ttl time.Duration, now time.Time) entry {
	e := entry{Version: FormatVersion, Key: key, StoredAt: now.UTC(), Data: data}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl).UTC()
	}
	return e
}

// check returns the payload if e is a current, unexpired entry for key.
func (e entry) check(key string, now time.Time) ([]byte, error) {
	switch {
	case e.Version != FormatVersion:
		return nil, errStale
	case e.Key != key:
		return nil, errMisfiled
	case !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt):
		return nil, errExpired
	}
	return e.Data, nil
}

func seal(key string, data []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	return json.Marshal(newEntry(key, data, ttl, now))
}

func unseal(key string, raw []byte, now time.Time) ([]byte, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return e.check(key, now)
}
