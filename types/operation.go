package types

// Kind distinguishes operations dispatched to a server-side cloud function
// (whose reply arrives asynchronously over the listener socket) from
// operations satisfied by a synchronous direct storage read.
type Kind int

const (
	CloudRequest Kind = iota
	DirectRequestKind
)

// Operation is an immutable, abstract request. Concrete operations
// (Create, GetData, ...) implement it; the core only ever interacts with
// requests through this interface.
type Operation interface {
	// Name identifies the operation for logging, e.g. "create_node".
	Name() string
	// Path returns the target path of the operation.
	Path() string
	// IsCloudRequest reports whether this operation must be dispatched to
	// the provider's write queue (true) or can be satisfied by a direct
	// read (false).
	IsCloudRequest() bool
	// GenerateRequest produces the serializable payload sent to the
	// provider for a cloud request. Unused for direct requests.
	GenerateRequest() map[string]interface{}
	// ProcessResult maps a raw indirect reply to a user-visible result and
	// resolves future accordingly. Only called for cloud requests.
	ProcessResult(reply map[string]interface{}, future *Future)
}

// DirectResultTag discriminates the payload carried by a DirectResult.
type DirectResultTag int

const (
	DirectResultNull DirectResultTag = iota
	DirectResultNodeTag
	DirectResultErrorTag
)

// DirectResult is the sum type {Node, Error, Null} produced by a direct
// storage read, encoded as a tagged struct so the Sorter can dispatch on
// Tag instead of doing a runtime type assertion on an empty interface.
type DirectResult struct {
	Tag  DirectResultTag
	Node *Node
	Err  error
}

// NullResult returns a DirectResult carrying neither a node nor an error,
// e.g. the outcome of an Exists check against a path that is absent.
func NullResult() DirectResult { return DirectResult{Tag: DirectResultNull} }

// NodeResult wraps a Node snapshot as a DirectResult.
func NodeResult(n *Node) DirectResult { return DirectResult{Tag: DirectResultNodeTag, Node: n} }

// ErrorResult wraps an error as a DirectResult.
func ErrorResult(err error) DirectResult { return DirectResult{Tag: DirectResultErrorTag, Err: err} }

// Value returns the value that should be handed to Future.SetResult /
// Future.SetException for this DirectResult: the Node (possibly nil) on
// success, or the error on failure.
func (d DirectResult) Value() (interface{}, error) {
	if d.Tag == DirectResultErrorTag {
		return nil, d.Err
	}
	if d.Tag == DirectResultNodeTag {
		return d.Node, nil
	}
	return nil, nil
}
