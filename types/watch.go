package types

// WatchType identifies the kind of change a Watch is armed for.
type WatchType int

const (
	WatchGetData WatchType = iota
	WatchExists
	WatchGetChildren
)

func (t WatchType) String() string {
	switch t {
	case WatchGetData:
		return "GET_DATA"
	case WatchExists:
		return "EXISTS"
	case WatchGetChildren:
		return "GET_CHILDREN"
	default:
		return "UNKNOWN"
	}
}

// WatchEventType identifies the kind of change being reported to a watch.
// The numeric values line up with the "watch-event" integers carried on the
// wire by the reply socket.
type WatchEventType int

const (
	NodeDataChanged WatchEventType = 1
)

// WatchedEvent is delivered to a watch's callback once it fires.
type WatchedEvent struct {
	Type      WatchEventType
	Path      string
	Timestamp int64
}

// Watch is a one-shot registration on a path, fired at most once before it
// is removed from the registry that owns it.
type Watch struct {
	Path      string
	Type      WatchType
	Timestamp int64
	Callback  func(WatchedEvent)
}

// Deliver invokes the watch's callback, if any. It is the caller's
// responsibility to invoke this from a single goroutine per session so that
// watch delivery stays ordered with respect to the rest of the session, per
// the core's single-threaded delivery discipline.
func (w *Watch) Deliver(event WatchedEvent) {
	if w == nil || w.Callback == nil {
		return
	}
	w.Callback(event)
}
