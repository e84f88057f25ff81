package ir

// EventFilter selects events from a backend's event log.
// The zero value matches every event.
type EventFilter struct {
	Kind     EventKind // Empty matches every kind
	TokenID  *TokenID  // Nil matches every token; ApprovalForAll events never match a token
	AfterSeq int64     // Only events with Seq > AfterSeq
	Limit    int       // 0 means no limit
}

// Match reports whether ev passes the kind, token and seq conditions.
// Limit is applied by the reader.
func (f EventFilter) Match(ev Event) bool {
	if f.Kind != "" && ev.Kind != f.Kind {
		return false
	}
	if f.TokenID != nil && (ev.Kind == EventApprovalForAll || ev.TokenID != *f.TokenID) {
		return false
	}
	return ev.Seq > f.AfterSeq
}
