package goSession

import (
	"time"

	"github.com/MrEthical07/goSession/store"
)

// WindowResult is the outcome of a renewal-window check.
type WindowResult uint8

const (
	// WindowOK means the rotation chain is still within its ceiling.
	WindowOK WindowResult = iota
	// WindowExceeded means the chain has outlived its absolute ceiling and
	// the session must be terminated.
	WindowExceeded
)

// RenewalPolicy decides whether a refresh attempt is within the allowed
// sliding-renewal window. Pure computation: no I/O, no shared state.
type RenewalPolicy struct {
	Ceiling           time.Duration
	RememberMeCeiling time.Duration
}

// CheckWithinWindow compares the age of the rotation chain (now minus the
// record's original IssuedAt, which rotation never resets) against the
// ceiling selected by the record's remember-me flag. A session therefore
// cannot be kept alive indefinitely by continual activity.
func (p RenewalPolicy) CheckWithinWindow(rec *store.Record, now time.Time) WindowResult {
	ceiling := p.Ceiling
	if rec.RememberMe {
		ceiling = p.RememberMeCeiling
	}
	if ceiling <= 0 {
		return WindowOK
	}

	age := now.Sub(time.Unix(rec.IssuedAt, 0))
	if age > ceiling {
		return WindowExceeded
	}
	return WindowOK
}
