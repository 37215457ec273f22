package types

import "fmt"

// WatchRequester is implemented by operations that may install a watch as a
// side effect of a direct read (GetData, Exists, GetChildren). It is
// consulted by provider implementations, not by the core itself.
type WatchRequester interface {
	// WantsWatch reports the watch type to arm, if any.
	WantsWatch() (WatchType, bool)
}

// CreateOp requests creation of a new node. It is always a cloud request:
// the server tier must assign the node's logical timestamp.
type CreateOp struct {
	path      string
	data      []byte
	sessionID string
	version   int
	flags     int
}

func NewCreateOp(path string, data []byte, sessionID string) *CreateOp {
	return &CreateOp{path: path, data: data, sessionID: sessionID, version: -1}
}

func (o *CreateOp) Name() string          { return "create_node" }
func (o *CreateOp) Path() string          { return o.path }
func (o *CreateOp) IsCloudRequest() bool  { return true }
func (o *CreateOp) GenerateRequest() map[string]interface{} {
	return map[string]interface{}{
		"op":      o.Name(),
		"path":    o.path,
		"user":    o.sessionID,
		"version": o.version,
		"flags":   o.flags,
		"data":    o.data,
	}
}

func (o *CreateOp) ProcessResult(reply map[string]interface{}, future *Future) {
	processNodeReply(o.path, reply, future)
}

// SetDataOp requests an update to a node's data. Always a cloud request.
type SetDataOp struct {
	path      string
	data      []byte
	sessionID string
	version   int
}

func NewSetDataOp(path string, data []byte, version int, sessionID string) *SetDataOp {
	return &SetDataOp{path: path, data: data, version: version, sessionID: sessionID}
}

func (o *SetDataOp) Name() string         { return "set_data" }
func (o *SetDataOp) Path() string         { return o.path }
func (o *SetDataOp) IsCloudRequest() bool { return true }
func (o *SetDataOp) GenerateRequest() map[string]interface{} {
	return map[string]interface{}{
		"op":      o.Name(),
		"path":    o.path,
		"user":    o.sessionID,
		"version": o.version,
		"flags":   0,
		"data":    o.data,
	}
}

func (o *SetDataOp) ProcessResult(reply map[string]interface{}, future *Future) {
	processNodeReply(o.path, reply, future)
}

// DeleteOp requests deletion of a node. Always a cloud request.
type DeleteOp struct {
	path      string
	sessionID string
	version   int
}

func NewDeleteOp(path string, version int, sessionID string) *DeleteOp {
	return &DeleteOp{path: path, version: version, sessionID: sessionID}
}

func (o *DeleteOp) Name() string         { return "delete_node" }
func (o *DeleteOp) Path() string         { return o.path }
func (o *DeleteOp) IsCloudRequest() bool { return true }
func (o *DeleteOp) GenerateRequest() map[string]interface{} {
	return map[string]interface{}{
		"op":      o.Name(),
		"path":    o.path,
		"user":    o.sessionID,
		"version": o.version,
		"flags":   0,
	}
}

func (o *DeleteOp) ProcessResult(_ map[string]interface{}, future *Future) {
	future.SetResult(nil)
}

// GetDataOp is a direct-request read of a node's data, optionally arming a
// GET_DATA watch.
type GetDataOp struct {
	path  string
	watch bool
}

func NewGetDataOp(path string, watch bool) *GetDataOp { return &GetDataOp{path: path, watch: watch} }

func (o *GetDataOp) Name() string                           { return "get_data" }
func (o *GetDataOp) Path() string                           { return o.path }
func (o *GetDataOp) IsCloudRequest() bool                   { return false }
func (o *GetDataOp) GenerateRequest() map[string]interface{} { return nil }
func (o *GetDataOp) ProcessResult(map[string]interface{}, *Future) {}
func (o *GetDataOp) WantsWatch() (WatchType, bool)           { return WatchGetData, o.watch }

// ExistsOp is a direct-request existence check, optionally arming an EXISTS
// watch, whether or not the node exists.
type ExistsOp struct {
	path  string
	watch bool
}

func NewExistsOp(path string, watch bool) *ExistsOp { return &ExistsOp{path: path, watch: watch} }

func (o *ExistsOp) Name() string                            { return "exists" }
func (o *ExistsOp) Path() string                            { return o.path }
func (o *ExistsOp) IsCloudRequest() bool                    { return false }
func (o *ExistsOp) GenerateRequest() map[string]interface{} { return nil }
func (o *ExistsOp) ProcessResult(map[string]interface{}, *Future) {}
func (o *ExistsOp) WantsWatch() (WatchType, bool)           { return WatchExists, o.watch }

// GetChildrenOp is a direct-request listing of a node's children, optionally
// arming a GET_CHILDREN watch.
type GetChildrenOp struct {
	path  string
	watch bool
}

func NewGetChildrenOp(path string, watch bool) *GetChildrenOp {
	return &GetChildrenOp{path: path, watch: watch}
}

func (o *GetChildrenOp) Name() string                            { return "get_children" }
func (o *GetChildrenOp) Path() string                            { return o.path }
func (o *GetChildrenOp) IsCloudRequest() bool                    { return false }
func (o *GetChildrenOp) GenerateRequest() map[string]interface{} { return nil }
func (o *GetChildrenOp) ProcessResult(map[string]interface{}, *Future) {}
func (o *GetChildrenOp) WantsWatch() (WatchType, bool)           { return WatchGetChildren, o.watch }

func processNodeReply(path string, reply map[string]interface{}, future *Future) {
	status, _ := reply["status"].(string)
	if status == "error" {
		msg, _ := reply["error"].(string)
		future.SetException(fmt.Errorf("faaskeeper: %s", msg))
		return
	}

	sum := asInt64(reply["version"])
	versions, _ := reply["epoch"].([]string)

	future.SetResult(&Node{
		Path: path,
		Modified: Modified{
			System: System{Sum: sum},
			Epoch:  Epoch{Version: versions},
		},
	})
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
