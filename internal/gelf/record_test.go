package gelf

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/gelf-forwarder/internal/domain"
)

func TestFromUserEvent(t *testing.T) {
	b := NewBuilder("keycloak")

	t.Run("no optional fields set", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-1",
			Type:    "LOGOUT",
			Time:    1700000000000,
			RealmID: "realm-1",
		}, nil)

		assert.Equal(t, "LOGOUT", rec["short_message"], "summary must be exactly the type token")
		assert.Equal(t, Version, rec["version"])
		assert.Equal(t, "keycloak", rec["host"])
		assert.Equal(t, "evt-1", rec["event_id"])
		assert.Equal(t, "realm-1", rec["realm_id"])
		assert.Equal(t, "LOGOUT", rec["event_type"])

		for _, absent := range []string{"ip_address", "realm_name", "client_id", "user_id", "username", "session_id", "error", "auth_session_parent_id", "auth_session_tab_id"} {
			_, ok := rec[absent]
			assert.False(t, ok, "absent optional field %q must not appear", absent)
		}
	})

	t.Run("login with ip and realm name", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:        "evt-2",
			Type:      "LOGIN",
			Time:      1700000000000,
			RealmID:   "realm-1",
			RealmName: "demo",
			IPAddress: "10.0.0.5",
		}, nil)

		assert.Equal(t, "LOGIN 10.0.0.5 demo", rec["short_message"])
		assert.Equal(t, "LOGIN", rec["event_type"])
		assert.Equal(t, "10.0.0.5", rec["ip_address"])
		assert.Equal(t, "demo", rec["realm_name"])
		_, ok := rec["error"]
		assert.False(t, ok)
	})

	t.Run("username comes from details", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-3",
			Type:    "LOGIN",
			Time:    1700000000000,
			RealmID: "realm-1",
			Details: map[string]string{"username": "alice", "auth_method": "openid-connect"},
		}, nil)

		assert.Equal(t, "alice", rec["username"])
		assert.Equal(t, "openid-connect", rec["auth_method"], "details entries are flattened in")
		assert.Equal(t, 1, strings.Count(rec["short_message"].(string), "alice"), "username appears once in the summary")
	})

	t.Run("details override fixed fields", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-4",
			Type:    "LOGIN",
			Time:    1700000000000,
			RealmID: "realm-1",
			Details: map[string]string{"host": "spoofed"},
		}, nil)

		assert.Equal(t, "spoofed", rec["host"], "details merge last and win collisions")
	})

	t.Run("timestamp is floor division of millis", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-5",
			Type:    "LOGIN",
			Time:    1699999999500,
			RealmID: "realm-1",
		}, nil)

		assert.Equal(t, int64(1699999999), rec["timestamp"])
	})

	t.Run("auth session linkage", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-6",
			Type:    "LOGIN",
			Time:    1700000000000,
			RealmID: "realm-1",
		}, &domain.AuthSessionLink{ParentID: "parent-1", TabID: "tab-1"})

		assert.Equal(t, "parent-1", rec["auth_session_parent_id"])
		assert.Equal(t, "tab-1", rec["auth_session_tab_id"])
	})

	t.Run("error joins summary and fields", func(t *testing.T) {
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-7",
			Type:    "LOGIN_ERROR",
			Time:    1700000000000,
			RealmID: "realm-1",
			UserID:  "user-1",
			Error:   "invalid_user_credentials",
		}, nil)

		assert.Equal(t, "LOGIN_ERROR user-1 invalid_user_credentials", rec["short_message"])
		assert.Equal(t, "invalid_user_credentials", rec["error"])
	})
}

func TestFromAdminEvent(t *testing.T) {
	b := NewBuilder("keycloak")
	b.now = func() time.Time { return time.Unix(1700000123, 500_000_000) }

	t.Run("delete with no error and empty details", func(t *testing.T) {
		rec := b.FromAdminEvent(domain.AdminEvent{
			ID:           "adm-1",
			Operation:    domain.OperationDelete,
			ResourcePath: "users/123",
			ResourceType: "USER",
			AuthDetails:  domain.AuthDetails{RealmID: "realm-1"},
		}, false)

		assert.Equal(t, "DELETE", rec["short_message"])
		assert.Equal(t, "true", rec["admin_event"])
		assert.Equal(t, "DELETE", rec["operation_type"])
		assert.Equal(t, "users/123", rec["resource_path"])
		assert.Equal(t, "USER", rec["resource_type"])
		assert.Equal(t, "realm-1", rec["realm_id"])
		assert.Equal(t, int64(1700000123), rec["timestamp"], "admin events use wall-clock seconds")
		_, ok := rec["error"]
		assert.False(t, ok)
	})

	t.Run("error and auth details in summary order", func(t *testing.T) {
		rec := b.FromAdminEvent(domain.AdminEvent{
			ID:           "adm-2",
			Operation:    domain.OperationUpdate,
			ResourcePath: "clients/7",
			ResourceType: "CLIENT",
			Error:        "conflict",
			AuthDetails: domain.AuthDetails{
				RealmID:   "realm-1",
				RealmName: "demo",
				ClientID:  "admin-cli",
				UserID:    "admin-1",
				IPAddress: "10.0.0.9",
			},
		}, false)

		assert.Equal(t, "UPDATE conflict demo admin-cli admin-1 10.0.0.9", rec["short_message"])
		assert.Equal(t, "conflict", rec["error"])
		assert.Equal(t, "demo", rec["realm_name"])
		assert.Equal(t, "admin-cli", rec["client_id"])
		assert.Equal(t, "admin-1", rec["user_id"])
		assert.Equal(t, "10.0.0.9", rec["ip_address"])
	})

	t.Run("representation honored only when requested", func(t *testing.T) {
		ev := domain.AdminEvent{
			ID:             "adm-3",
			Operation:      domain.OperationCreate,
			ResourcePath:   "users/9",
			ResourceType:   "USER",
			Representation: json.RawMessage(`{"username":"bob"}`),
			AuthDetails:    domain.AuthDetails{RealmID: "realm-1"},
		}

		withRep := b.FromAdminEvent(ev, true)
		assert.Equal(t, `{"username":"bob"}`, withRep["representation"])

		withoutRep := b.FromAdminEvent(ev, false)
		_, ok := withoutRep["representation"]
		assert.False(t, ok, "representation omitted when the include flag is off")
	})

	t.Run("details merge last", func(t *testing.T) {
		rec := b.FromAdminEvent(domain.AdminEvent{
			ID:           "adm-4",
			Operation:    domain.OperationAction,
			ResourcePath: "realms/demo",
			ResourceType: "REALM",
			AuthDetails:  domain.AuthDetails{RealmID: "realm-1"},
			Details:      map[string]string{"resource_type": "CUSTOM"},
		}, false)

		assert.Equal(t, "CUSTOM", rec["resource_type"])
	})
}

func TestRecordEncode(t *testing.T) {
	t.Run("round trip preserves values", func(t *testing.T) {
		b := NewBuilder("keycloak")
		rec := b.FromUserEvent(domain.UserEvent{
			ID:      "evt-1",
			Type:    "LOGIN",
			Time:    1699999999500,
			RealmID: "realm-1",
			Details: map[string]string{"username": "grüße-мир"},
		}, nil)

		payload, err := rec.Encode()
		require.NoError(t, err)

		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		var decoded map[string]any
		require.NoError(t, dec.Decode(&decoded))

		assert.Equal(t, "grüße-мир", decoded["username"], "non-ASCII strings survive encoding")
		ts, err := decoded["timestamp"].(json.Number).Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(1699999999), ts, "integer timestamp survives without precision loss")
		assert.Len(t, decoded, len(rec))
	})

	t.Run("empty record is refused", func(t *testing.T) {
		payload, err := Record{}.Encode()
		assert.Error(t, err)
		assert.Nil(t, payload)
	})
}
