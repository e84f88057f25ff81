// Package ir provides the canonical value types shared by every nftreg package.
//
// This package contains type definitions and their encodings only. All other
// internal packages import ir; ir imports nothing internal, which keeps it the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Identity is a fixed-width comparable value; its zero value is the null identity
//   - TokenID is an unsigned 64-bit counter value, never reused
//   - Events are ordered by a logical sequence number, never by wall-clock time
//   - Every persisted payload is RFC 8785 canonical JSON, so IDs derived from it are stable
package ir
