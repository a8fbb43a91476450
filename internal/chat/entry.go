package chat

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Role identifies the speaker of a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind tags synthetic entries. The only recognized value is summary;
// everything else is an ordinary turn.
type Kind string

const (
	KindNone    Kind = ""
	KindSummary Kind = "summary"
)

// Entry is one stored conversation turn. Timestamps are milliseconds
// since epoch. Summary entries are always hidden and default to the
// system role.
type Entry struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	Hidden    bool   `json:"hidden"`
	Kind      Kind   `json:"kind,omitempty"`
}

// IsSummary reports whether the entry is a compacted-history record.
func (e Entry) IsSummary() bool {
	return e.Kind == KindSummary
}

// Valid reports whether the entry may cross the storage boundary.
// Ordinary entries need non-empty text and a user or assistant role;
// summary entries may be empty.
func (e Entry) Valid() bool {
	if e.IsSummary() {
		return true
	}
	return strings.TrimSpace(e.Text) != "" && (e.Role == RoleUser || e.Role == RoleAssistant)
}

// RawEntry is the loosely-typed shape clients submit. Fields arrive as
// whatever JSON type the client produced; Normalize coerces them.
type RawEntry struct {
	Role      any `json:"role"`
	Text      any `json:"text"`
	Timestamp any `json:"timestamp"`
	Hidden    any `json:"hidden"`
	Kind      any `json:"kind"`
}

// Timestamps below this are treated as seconds and scaled up.
const millisThreshold = int64(1e12)

// Normalize converts client-supplied raw items into canonical Entries.
// Malformed items are dropped silently; the transform is pure apart
// from reading the supplied clock value for missing timestamps.
func Normalize(items []json.RawMessage, now time.Time) []Entry {
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		var raw RawEntry
		if err := json.Unmarshal(item, &raw); err != nil {
			// Non-object entry (string, number, array): skip.
			continue
		}
		e, ok := normalizeOne(raw, now)
		if !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

func normalizeOne(raw RawEntry, now time.Time) (Entry, bool) {
	kind := KindNone
	if coerceString(raw.Kind) == string(KindSummary) {
		kind = KindSummary
	}

	text := coerceString(raw.Text)
	if kind != KindSummary && strings.TrimSpace(text) == "" {
		return Entry{}, false
	}

	role := Role(coerceString(raw.Role))
	if role != RoleUser && role != RoleAssistant {
		if kind == KindSummary {
			role = RoleSystem
		} else {
			role = RoleUser
		}
	}

	ts, ok := coerceInt64(raw.Timestamp)
	if !ok || ts <= 0 {
		ts = now.UnixMilli()
	}
	if ts < millisThreshold {
		ts *= 1000
	}

	hidden := coerceBool(raw.Hidden)
	if kind == KindSummary {
		hidden = true
	}

	return Entry{Role: role, Text: text, Timestamp: ts, Hidden: hidden, Kind: kind}, true
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return ""
	}
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "1"
	case float64:
		return b != 0
	default:
		return false
	}
}
