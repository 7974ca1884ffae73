package domain

import "encoding/json"

// EventType identifies a user/authentication event emitted by the identity
// platform (LOGIN, LOGIN_ERROR, LOGOUT, ...). The set is open-ended: the
// forwarder passes tokens through verbatim rather than enumerating them.
type EventType string

// OperationType identifies what an administrative event did to a resource.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
	OperationAction OperationType = "ACTION"
)

// UserEvent is an authentication-path audit event. Optional string fields use
// the empty string for "absent"; absent fields must never surface in the
// outgoing record.
type UserEvent struct {
	ID        string            `json:"event_id"`
	Type      EventType         `json:"event_type"`
	Time      int64             `json:"event_time_ms"` // epoch millis
	RealmID   string            `json:"realm_id"`
	RealmName string            `json:"realm_name,omitempty"`
	ClientID  string            `json:"client_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	Error     string            `json:"error,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// AuthDetails is the nested actor block carried by administrative events.
type AuthDetails struct {
	RealmID   string `json:"realm_id"`
	RealmName string `json:"realm_name,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// AdminEvent is a change made through the management interface. It carries no
// intrinsic timestamp; the record builder stamps it at build time.
type AdminEvent struct {
	ID             string            `json:"event_id"`
	Operation      OperationType     `json:"operation_type"`
	ResourcePath   string            `json:"resource_path"`
	ResourceType   string            `json:"resource_type"`
	Representation json.RawMessage   `json:"representation,omitempty"` // opaque, pre-serialized
	Error          string            `json:"error,omitempty"`
	AuthDetails    AuthDetails       `json:"auth_details"`
	Details        map[string]string `json:"details,omitempty"`
}

// AuthSessionLink is the optional linkage to the in-flight authentication
// session of the request that produced a user event. Supplied by the host per
// call; nil means "no linkage, omit the fields".
type AuthSessionLink struct {
	ParentID string `json:"parent_id"`
	TabID    string `json:"tab_id"`
}

// AuditEvent is the tagged union delivered by the event source. Exactly one of
// User / Admin is set, discriminated by Kind.
type AuditEvent struct {
	Kind  EventKind   `json:"kind"`
	User  *UserEvent  `json:"user,omitempty"`
	Admin *AdminEvent `json:"admin,omitempty"`

	// AuthSession is the linkage materialized by the platform at emit time,
	// only ever set alongside a user event.
	AuthSession *AuthSessionLink `json:"auth_session,omitempty"`

	// StreamMessageID tracks the source message for acknowledgement.
	StreamMessageID string `json:"-"`
}

// EventKind discriminates the two variants of AuditEvent.
type EventKind string

const (
	KindUser  EventKind = "user"
	KindAdmin EventKind = "admin"
)
