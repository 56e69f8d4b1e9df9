// Package ident generates conversation and message identifiers.
package ident

import (
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

const hexDigits = "0123456789abcdef"

// groups are the hex group lengths of a conversation identifier.
var groups = [5]int{8, 4, 4, 4, 12}

// seq reduces message-id collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// New returns a conversation identifier: five hyphen-joined groups of
// lowercase hex characters with lengths 8-4-4-4-12. Each character is drawn
// uniformly, so the result looks like a UUID but carries no version or
// variant bits. Collisions are accepted as negligible; no registry is kept.
func New() string {
	buf := make([]byte, 36)
	raw := make([]byte, 32)
	if _, err := crand.Read(raw); err != nil {
		for i := range raw {
			raw[i] = byte(rand.Intn(256))
		}
	}
	n := 0
	j := 0
	for gi, g := range groups {
		if gi > 0 {
			buf[n] = '-'
			n++
		}
		for i := 0; i < g; i++ {
			buf[n] = hexDigits[raw[j]&0x0f]
			n++
			j++
		}
	}
	return string(buf)
}

// NewMessageID generates a unique message ID from the current UTC nanosecond
// timestamp and an atomic sequence number. The format is "msg-<ts>-<seq>".
func NewMessageID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("msg-%d-%d", n, s)
}
