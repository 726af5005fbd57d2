package goSession

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager orchestrates the session-token lifecycle: issuance, verification,
// rotation, and revocation of access/refresh token pairs.
//
// Manager instances are constructed once through [Builder.Build] at process
// start and shared by reference across request handlers; all methods are safe
// for concurrent use.
type Manager struct {
	config       Config
	accessCodec  *token.Codec
	refreshCodec *token.Codec
	refreshStore *store.RefreshStore
	revocations  *store.RevocationList
	policy       RenewalPolicy
	audit        *auditDispatcher
	metrics      *Metrics

	// now is swapped in tests to simulate clock movement.
	now func() time.Time
}

// Close flushes and stops the audit dispatcher. The Manager must not be used
// after Close.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped returns the number of audit events shed under backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time deep copy of all metrics.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// Issue mints a fresh access/refresh pair for identity and establishes the
// subject's single active refresh record. Any prior record for the subject
// is superseded; older refresh tokens become invalid the instant the new one
// is minted.
func (m *Manager) Issue(ctx context.Context, identity Identity, rememberMe bool) (*TokenPair, error) {
	if m == nil || m.refreshStore == nil {
		return nil, ErrManagerNotReady
	}
	if identity.SubjectID == "" {
		return nil, ErrInvalidIdentity
	}

	now := m.now()
	refreshTTL := m.refreshTTL(rememberMe)

	access, err := m.accessCodec.Sign(token.Claims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: identity.SubjectID,
		},
	}, m.config.Token.AccessTTL)
	if err != nil {
		m.metricInc(MetricIssueFailure)
		return nil, err
	}

	chainID := uuid.NewString()
	refresh, err := m.refreshCodec.Sign(token.Claims{
		RememberMe: rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: identity.SubjectID,
			ID:      chainID,
		},
	}, refreshTTL)
	if err != nil {
		m.metricInc(MetricIssueFailure)
		return nil, err
	}

	rec := &store.Record{
		SubjectID:     identity.SubjectID,
		Email:         identity.Email,
		Role:          identity.Role,
		Fingerprint:   token.Fingerprint(refresh),
		IssuedAt:      now.Unix(),
		LastRotatedAt: now.Unix(),
		ExpiresAt:     now.Add(refreshTTL).Unix(),
		RememberMe:    rememberMe,
	}
	if err := m.refreshStore.Put(ctx, rec); err != nil {
		m.metricInc(MetricIssueFailure)
		if errors.Is(err, store.ErrStoreUnavailable) {
			m.metricInc(MetricStoreUnavailable)
			m.emitAudit(ctx, auditEventStoreUnavailable, false, identity.SubjectID, chainID, err, nil)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, err
	}

	m.metricInc(MetricIssueSuccess)
	m.emitAudit(ctx, auditEventIssue, true, identity.SubjectID, chainID, nil, func() map[string]string {
		return map[string]string{
			"remember_me": fmt.Sprintf("%t", rememberMe),
		}
	})

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   refreshTTL,
	}, nil
}

// Verify checks an access token's structure, signature, expiry, and
// revocation status, returning the embedded identity. This is the hot path
// invoked by the request guard on every protected request. A store outage
// fails closed.
func (m *Manager) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if m == nil || m.revocations == nil {
		return nil, ErrManagerNotReady
	}
	if m.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { m.metrics.Observe(MetricVerifyLatency, time.Since(start)) }()
	}

	claims, err := m.accessCodec.Verify(accessToken)
	if err != nil {
		m.metricInc(MetricVerifyFailure)
		return nil, mapTokenErr(err)
	}

	revoked, err := m.revocations.IsRevoked(ctx, token.Fingerprint(accessToken))
	if err != nil {
		m.metricInc(MetricStoreUnavailable)
		m.emitAudit(ctx, auditEventStoreUnavailable, false, claims.Subject, "", err, nil)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if revoked {
		m.metricInc(MetricVerifyRevoked)
		m.emitAudit(ctx, auditEventVerifyDenied, false, claims.Subject, "", ErrTokenRevoked, func() map[string]string {
			return map[string]string{
				"reason": "revoked",
			}
		})
		return nil, ErrTokenRevoked
	}

	m.metricInc(MetricVerifySuccess)
	return &Identity{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

// Rotate exchanges a valid refresh token for a new access/refresh pair,
// superseding the presented token.
//
// A presented token whose fingerprint no longer matches the stored record is
// a replay signal — the presenter holds a superseded value, so the whole
// session chain is revoked before the rejection is returned. A rotation that
// loses the commit race to a concurrent rotation of the same token is
// rejected without revocation; the freshly signed pair is discarded and never
// reaches the caller.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if m == nil || m.refreshStore == nil {
		return nil, ErrManagerNotReady
	}

	claims, err := m.refreshCodec.Verify(refreshToken)
	if err != nil {
		m.metricInc(MetricRotateFailure)
		m.emitAudit(ctx, auditEventRotateInvalid, false, "", "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return nil, ErrRefreshInvalid
	}
	subjectID := claims.Subject

	rec, err := m.refreshStore.Get(ctx, subjectID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			m.metricInc(MetricRotateFailure)
			m.emitAudit(ctx, auditEventRotateInvalid, false, subjectID, claims.ID, ErrRefreshNotFound, func() map[string]string {
				return map[string]string{
					"reason": "no_active_session",
				}
			})
			return nil, ErrRefreshNotFound
		case errors.Is(err, store.ErrStoreUnavailable):
			m.metricInc(MetricRotateFailure)
			m.metricInc(MetricStoreUnavailable)
			m.emitAudit(ctx, auditEventStoreUnavailable, false, subjectID, claims.ID, err, nil)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		case errors.Is(err, store.ErrRecordCorrupt):
			m.revokeChain(ctx, subjectID)
			m.metricInc(MetricRotateFailure)
			m.emitAudit(ctx, auditEventRotateInvalid, false, subjectID, claims.ID, err, func() map[string]string {
				return map[string]string{
					"reason": "record_corrupt",
				}
			})
			return nil, ErrRefreshInvalid
		default:
			m.metricInc(MetricRotateFailure)
			return nil, err
		}
	}

	if token.Fingerprint(refreshToken) != rec.Fingerprint {
		// The presenter holds a superseded token: either an old value was
		// exfiltrated and replayed, or a legitimate client is far behind the
		// chain. Both are unrecoverable; kill the session.
		m.revokeChain(ctx, subjectID)
		m.metricInc(MetricReplayDetected)
		m.metricInc(MetricSessionRevoked)
		m.metricInc(MetricRotateFailure)
		m.emitAudit(ctx, auditEventReplayDetected, false, subjectID, claims.ID, ErrRefreshMismatch, nil)
		return nil, ErrRefreshMismatch
	}

	now := m.now()
	if m.policy.CheckWithinWindow(rec, now) == WindowExceeded {
		m.revokeChain(ctx, subjectID)
		m.metricInc(MetricRenewalCeilingExceeded)
		m.metricInc(MetricSessionRevoked)
		m.metricInc(MetricRotateFailure)
		m.emitAudit(ctx, auditEventRotateInvalid, false, subjectID, claims.ID, ErrRefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "renewal_ceiling",
			}
		})
		return nil, ErrRefreshInvalid
	}

	refreshTTL := m.refreshTTL(rec.RememberMe)

	access, err := m.accessCodec.Sign(token.Claims{
		Email: rec.Email,
		Role:  rec.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID,
		},
	}, m.config.Token.AccessTTL)
	if err != nil {
		m.metricInc(MetricRotateFailure)
		return nil, err
	}

	chainID := uuid.NewString()
	refresh, err := m.refreshCodec.Sign(token.Claims{
		RememberMe: rec.RememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID,
			ID:      chainID,
		},
	}, refreshTTL)
	if err != nil {
		m.metricInc(MetricRotateFailure)
		return nil, err
	}

	newRec := &store.Record{
		SubjectID:   subjectID,
		Email:       rec.Email,
		Role:        rec.Role,
		Fingerprint: token.Fingerprint(refresh),
		// IssuedAt carries over: rotation extends the token, never the chain.
		IssuedAt:      rec.IssuedAt,
		LastRotatedAt: now.Unix(),
		ExpiresAt:     now.Add(refreshTTL).Unix(),
		RememberMe:    rec.RememberMe,
	}

	// The swap must complete even if the caller disconnects mid-call;
	// a half-applied rotation would leave the chain pointing at a token
	// nobody holds.
	swapped, err := m.refreshStore.CompareAndSwap(context.WithoutCancel(ctx), subjectID, rec.Fingerprint, newRec)
	if err != nil {
		m.metricInc(MetricRotateFailure)
		if errors.Is(err, store.ErrStoreUnavailable) {
			m.metricInc(MetricStoreUnavailable)
			m.emitAudit(ctx, auditEventStoreUnavailable, false, subjectID, chainID, err, nil)
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, err
	}
	if !swapped {
		m.metricInc(MetricRotateRaceLost)
		m.metricInc(MetricRotateFailure)
		m.emitAudit(ctx, auditEventRotateInvalid, false, subjectID, chainID, ErrRefreshMismatch, func() map[string]string {
			return map[string]string{
				"reason": "lost_rotation_race",
			}
		})
		return nil, ErrRefreshMismatch
	}

	m.metricInc(MetricRotateSuccess)
	m.emitAudit(ctx, auditEventRotateSuccess, true, subjectID, chainID, nil, nil)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshTTL:   refreshTTL,
	}, nil
}

// Revoke terminates the subject's session on logout: the access token's
// fingerprint joins the revocation list until its natural expiry, and the
// refresh record is deleted so rotation requires a fresh Issue.
func (m *Manager) Revoke(ctx context.Context, accessToken, subjectID string) error {
	if m == nil || m.refreshStore == nil {
		return ErrManagerNotReady
	}

	var denyErr error
	if claims, err := m.accessCodec.Verify(accessToken); err == nil {
		denyErr = m.revocations.Revoke(ctx, token.Fingerprint(accessToken), claims.ExpiresAt.Time)
	}
	// An expired or unparseable access token needs no denylist entry; the
	// refresh record is still deleted below.

	if err := m.refreshStore.RevokeAll(context.WithoutCancel(ctx), subjectID); err != nil {
		m.metricInc(MetricStoreUnavailable)
		m.emitAudit(ctx, auditEventStoreUnavailable, false, subjectID, "", err, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if denyErr != nil {
		m.metricInc(MetricStoreUnavailable)
		m.emitAudit(ctx, auditEventStoreUnavailable, false, subjectID, "", denyErr, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, denyErr)
	}

	m.metricInc(MetricSessionRevoked)
	m.emitAudit(ctx, auditEventRevoked, true, subjectID, "", nil, nil)
	return nil
}

// revokeChain is the best-effort session kill used on replay and ceiling
// violations. The rejection is returned regardless of its outcome.
func (m *Manager) revokeChain(ctx context.Context, subjectID string) {
	if err := m.refreshStore.RevokeAll(context.WithoutCancel(ctx), subjectID); err != nil {
		log.Print("goSession: session revocation after anomaly failed")
		m.metricInc(MetricStoreUnavailable)
	}
}

func (m *Manager) refreshTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return m.config.Refresh.RememberMeTTL
	}
	return m.config.Refresh.TTL
}

func mapTokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrSignatureInvalid):
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
