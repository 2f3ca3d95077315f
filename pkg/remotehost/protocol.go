package remotehost

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the kind of a Message.
type MessageType string

const (
	TypeHello    MessageType = "hello"
	TypeRequest  MessageType = "request"
	TypeResponse MessageType = "response"
	TypeSignal   MessageType = "signal"
)

// Op is a host operation carried by a request.
type Op string

const (
	OpCreate     Op = "create"
	OpSet        Op = "set"
	OpGet        Op = "get"
	OpDestroy    Op = "destroy"
	OpAttach     Op = "attach"
	OpSubscribe  Op = "subscribe"
	OpDisconnect Op = "disconnect"
)

// Message is one protocol frame. Fields are populated according to Type and
// Op; unused fields are omitted on the wire.
type Message struct {
	Type MessageType `json:"type"`
	ID   uint64      `json:"id,omitempty"`
	Op   Op          `json:"op,omitempty"`

	Ref    string `json:"ref,omitempty"`
	Class  string `json:"class,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  any    `json:"value,omitempty"`
	Signal string `json:"signal,omitempty"`
	Parent string `json:"parent,omitempty"`
	Sub    string `json:"sub,omitempty"`
	Args   []any  `json:"args,omitempty"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// Encode marshals m.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage unmarshals one frame.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("decode message: missing type")
	}
	return m, nil
}

// Ref is a reference to an object on the remote host.
type Ref struct {
	id string
}

// HostID implements host.Ref.
func (r *Ref) HostID() string { return r.id }

// String returns the remote object id.
func (r *Ref) String() string { return r.id }
