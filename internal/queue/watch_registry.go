package queue

import (
	"sync"

	"github.com/ls-2018/faaskeeper-go/types"
)

// watchRegistry maps the MD5 hex digest of a path to the watches currently
// armed on it. All methods lock internally; callers never see the map.
type watchRegistry struct {
	mu      sync.Mutex
	buckets map[string][]*types.Watch
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{buckets: make(map[string][]*types.Watch)}
}

// add installs watch against path, replacing any existing watch of the same
// WatchType already registered on that path.
func (r *watchRegistry) add(path string, watch *types.Watch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := hashPath(path)
	bucket := r.buckets[key]
	for i, w := range bucket {
		if w.Type == watch.Type {
			bucket[i] = watch
			return
		}
	}
	r.buckets[key] = append(bucket, watch)
}

// takeOlderThan removes and returns, from each of the given raw paths'
// buckets, every watch whose Timestamp is strictly less than
// observedTimestamp. Unlike the bucket-at-a-time all-or-nothing removal the
// core's Python predecessor performed, this removes exactly the matching
// watches and leaves newer ones registered (SPEC_FULL.md §9 decision 1).
func (r *watchRegistry) takeOlderThan(paths []string, observedTimestamp int64) []*types.Watch {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*types.Watch
	for _, p := range paths {
		key := hashPath(p)
		bucket := r.buckets[key]
		if len(bucket) == 0 {
			continue
		}

		var remaining []*types.Watch
		for _, w := range bucket {
			if w.Timestamp < observedTimestamp {
				out = append(out, w)
			} else {
				remaining = append(remaining, w)
			}
		}

		if len(remaining) == 0 {
			delete(r.buckets, key)
		} else {
			r.buckets[key] = remaining
		}
	}
	return out
}

// takeMatching looks up the watches armed on path and, for a
// NodeDataChanged event, removes and returns the first registered
// WatchGetData watch. It reports ok=false when no watch matches, which the
// caller treats as "log and drop".
func (r *watchRegistry) takeMatching(path string, event types.WatchEventType) (*types.Watch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := hashPath(path)
	bucket := r.buckets[key]
	if len(bucket) == 0 {
		return nil, false
	}

	if event != types.NodeDataChanged {
		return nil, false
	}

	for i, w := range bucket {
		if w.Type == types.WatchGetData {
			r.buckets[key] = append(bucket[:i], bucket[i+1:]...)
			if len(r.buckets[key]) == 0 {
				delete(r.buckets, key)
			}
			return w, true
		}
	}
	return nil, false
}
