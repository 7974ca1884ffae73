// Package gelf derives GELF (Graylog Extended Log Format) records from
// identity-platform audit events and ships them over UDP.
package gelf

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/user/gelf-forwarder/internal/domain"
)

// Version is the GELF protocol version stamped on every record.
const Version = "1.1"

// Record is the flat field mapping for one GELF message. Values are scalars
// only; the single exception is `representation`, which carries an opaque
// pre-serialized string. A Record is built once per event, encoded once, and
// discarded.
type Record map[string]any

// Builder derives Records from audit events. It is stateless apart from the
// configured source hostname label and is safe for concurrent use.
type Builder struct {
	hostname string
	now      func() time.Time
}

// NewBuilder returns a Builder that labels every record's `host` field with
// hostname.
func NewBuilder(hostname string) *Builder {
	return &Builder{hostname: hostname, now: time.Now}
}

// include sets name=value on the record and returns the summary fragment for
// it. An empty value contributes nothing to either, so the human-readable
// line and the structured fields cannot drift apart.
func include(rec Record, name, value string) string {
	if value == "" {
		return ""
	}
	rec[name] = value
	return " " + value
}

// FromUserEvent builds the record for an authentication-path event. The
// optional linkage adds auth_session_parent_id / auth_session_tab_id; nil
// omits both.
func (b *Builder) FromUserEvent(ev domain.UserEvent, link *domain.AuthSessionLink) Record {
	rec := Record{}

	var sb strings.Builder
	sb.WriteString(string(ev.Type))
	sb.WriteString(include(rec, "ip_address", ev.IPAddress))
	sb.WriteString(include(rec, "realm_name", ev.RealmName))
	sb.WriteString(include(rec, "client_id", ev.ClientID))
	sb.WriteString(include(rec, "user_id", ev.UserID))
	sb.WriteString(include(rec, "username", ev.Details["username"]))
	sb.WriteString(include(rec, "session_id", ev.SessionID))
	sb.WriteString(include(rec, "error", ev.Error))

	rec["version"] = Version
	rec["host"] = b.hostname
	rec["event_id"] = ev.ID
	rec["short_message"] = sb.String()
	rec["timestamp"] = ev.Time / 1000
	rec["realm_id"] = ev.RealmID
	rec["event_type"] = string(ev.Type)

	// Details merge last: a details key overwrites any fixed field of the
	// same name.
	for k, v := range ev.Details {
		rec[k] = v
	}

	if link != nil {
		rec["auth_session_parent_id"] = link.ParentID
		rec["auth_session_tab_id"] = link.TabID
	}

	return rec
}

// FromAdminEvent builds the record for a management-interface event. Admin
// events carry no intrinsic timestamp; the record is stamped with the wall
// clock at build time. The representation payload is included only when
// includeRepresentation is set and the event carries one.
func (b *Builder) FromAdminEvent(ev domain.AdminEvent, includeRepresentation bool) Record {
	rec := Record{
		"version":     Version,
		"admin_event": "true",
	}

	var sb strings.Builder
	sb.WriteString(string(ev.Operation))
	sb.WriteString(include(rec, "error", ev.Error))

	rec["host"] = b.hostname
	rec["event_id"] = ev.ID
	rec["operation_type"] = string(ev.Operation)
	rec["timestamp"] = b.now().Unix()
	rec["resource_path"] = ev.ResourcePath
	rec["resource_type"] = ev.ResourceType
	if includeRepresentation && len(ev.Representation) > 0 {
		rec["representation"] = string(ev.Representation)
	}
	rec["realm_id"] = ev.AuthDetails.RealmID

	sb.WriteString(include(rec, "realm_name", ev.AuthDetails.RealmName))
	sb.WriteString(include(rec, "client_id", ev.AuthDetails.ClientID))
	sb.WriteString(include(rec, "user_id", ev.AuthDetails.UserID))
	sb.WriteString(include(rec, "ip_address", ev.AuthDetails.IPAddress))
	rec["short_message"] = sb.String()

	for k, v := range ev.Details {
		rec[k] = v
	}

	return rec
}

// Encode serializes the record to a compact UTF-8 JSON payload, one datagram's
// worth. An empty record is refused rather than shipped.
func (r Record) Encode() ([]byte, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("refusing to encode empty gelf record")
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gelf record: %w", err)
	}
	return payload, nil
}
