package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/tree"
)

// ReplyKind tells which of the three outcomes a Reply holds.
type ReplyKind int

const (
	ReplyOK ReplyKind = iota
	ReplyData
	ReplyError
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyOK:
		return "ok"
	case ReplyData:
		return "data"
	default:
		return "error"
	}
}

// NETCONF error types and tags used in rpc-error replies.
const (
	ErrorTypeProtocol    = "protocol"
	ErrorTypeApplication = "application"

	TagOperationNotSupported = "operation-not-supported"
	TagOperationFailed       = "operation-failed"
)

// RPCError is the rpc-error carried by a failed Reply.
type RPCError struct {
	Type    string `json:"error-type"`
	Tag     string `json:"error-tag"`
	AppTag  string `json:"error-app-tag,omitempty"`
	Message string `json:"error-message,omitempty"`
	Path    string `json:"error-path,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Tag)
	}
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Tag, e.Message)
}

// Reply is the outcome of one call: a bare acknowledgement, a data tree or an
// rpc-error. A data reply owns its tree; call Free once it is serialised.
type Reply struct {
	Kind         ReplyKind
	Data         *tree.Tree
	WithDefaults domain.WithDefaultsMode
	Err          *RPCError
}

// Free releases the reply tree, if any.
func (r *Reply) Free() {
	if r == nil || r.Data == nil {
		return
	}
	r.Data.Free()
	r.Data = nil
}

// MarshalJSON renders {"ok":{}}, {"data":...} or {"rpc-error":...}.
// Data trees are encoded with the reply's with-defaults mode.
func (r *Reply) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ReplyOK:
		return []byte(`{"ok":{}}`), nil
	case ReplyData:
		if r.Data == nil {
			return nil, fmt.Errorf("data reply without a tree")
		}
		data, err := r.Data.EncodeJSON(r.WithDefaults)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{"data": data})
	case ReplyError:
		return json.Marshal(map[string]*RPCError{"rpc-error": r.Err})
	default:
		return nil, fmt.Errorf("unknown reply kind %d", r.Kind)
	}
}
