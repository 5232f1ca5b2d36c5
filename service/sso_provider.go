package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/rs/zerolog"
)

// SSOProvider selects Kakao Talk accounts from the shared secure store and
// tracks refresh tokens the backend has rejected.
//
// The store is written by another process at any time, so every operation
// re-reads it. The invalidation cache is private to the provider; all of its
// read-modify-write cycles run under one mutex together with their
// persistence.
type SSOProvider struct {
	store         ports.SecureStore
	codec         ports.RecordCodec
	invalidations *InvalidationStore
	eventPub      ports.EventPublisher
	resolver      *ServiceNameResolver
	logger        zerolog.Logger
	now           func() time.Time

	mu          sync.Mutex
	accessGroup string
	cache       *core.InvalidationCache
	last        core.Snapshot // fallback for Invalidate when a re-read fails
}

// NewSSOProvider creates a provider. eventPub may be nil.
func NewSSOProvider(
	store ports.SecureStore,
	codec ports.RecordCodec,
	prefs ports.Preferences,
	eventPub ports.EventPublisher,
	phase core.Phase,
	logger zerolog.Logger,
) *SSOProvider {
	return &SSOProvider{
		store:         store,
		codec:         codec,
		invalidations: NewInvalidationStore(prefs, logger),
		eventPub:      eventPub,
		resolver:      NewServiceNameResolver(store, phase),
		logger:        logger,
		now:           time.Now,
	}
}

// Prepare binds the provider to an access group. It must be called before
// any other operation. The invalidation cache is loaded on the first call and
// kept across rebinding.
func (p *SSOProvider) Prepare(ctx context.Context, accessGroup string) error {
	if accessGroup == "" {
		return fmt.Errorf("access group is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache == nil {
		p.cache = p.invalidations.Load(ctx)
		p.logger.Debug().Int("entries", p.cache.Len()).Msg("loaded invalidation cache")
	}
	if p.accessGroup != accessGroup {
		p.last = core.Snapshot{}
	}
	p.accessGroup = accessGroup
	return nil
}

// AccessGroup returns the bound access group, or "" before Prepare
func (p *SSOProvider) AccessGroup() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessGroup
}

// FetchSnapshot reads all account records and drops invalidation entries
// whose account now carries a different refresh token. A device without SSO
// sessions yields an empty snapshot, not an error.
func (p *SSOProvider) FetchSnapshot(ctx context.Context) (core.Snapshot, error) {
	p.mu.Lock()
	snap, restored, err := p.fetchLocked(ctx)
	p.mu.Unlock()

	p.publish(ctx, nil, restored)
	return snap, err
}

func (p *SSOProvider) fetchLocked(ctx context.Context) (core.Snapshot, []core.InvalidationEntry, error) {
	if p.accessGroup == "" {
		return core.Snapshot{}, nil, core.ErrNotPrepared
	}

	snap, err := p.readSnapshot(ctx)
	if err != nil {
		return core.Snapshot{}, nil, err
	}

	restored := p.cache.Reconcile(snap)
	if len(restored) > 0 {
		p.invalidations.Save(ctx, p.cache)
		for _, e := range restored {
			p.logger.Info().Str("account_id", e.AccountID).Msg("refresh token rotated, account valid again")
		}
	}

	p.last = core.Snapshot{Records: slices.Clone(snap.Records)}
	return snap, restored, nil
}

func (p *SSOProvider) readSnapshot(ctx context.Context) (core.Snapshot, error) {
	name, err := p.resolver.Resolve(ctx, p.accessGroup)
	if err != nil {
		if errors.Is(err, core.ErrItemNotFound) {
			p.logger.Debug().Str("access_group", p.accessGroup).Msg("no sso seed for access group")
			return core.Snapshot{}, nil
		}
		return core.Snapshot{}, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	data, err := p.store.Get(ctx, name, p.accessGroup)
	if err != nil {
		if errors.Is(err, core.ErrItemNotFound) {
			p.logger.Debug().Str("access_group", p.accessGroup).Msg("no sso records for access group")
			return core.Snapshot{}, nil
		}
		return core.Snapshot{}, fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
	}

	snap, err := p.codec.Decode(data)
	if err != nil {
		if !errors.Is(err, core.ErrDecode) {
			err = fmt.Errorf("%w: %w", core.ErrDecode, err)
		}
		return core.Snapshot{}, err
	}
	return snap, nil
}

// Select picks an account from a fresh snapshot. Invalidated accounts are
// not filtered out; callers check IsValid before using the refresh token.
func (p *SSOProvider) Select(ctx context.Context, loginType core.LoginType) (core.AccountRecord, bool, error) {
	snap, err := p.FetchSnapshot(ctx)
	if err != nil {
		return core.AccountRecord{}, false, err
	}
	rec, ok := snap.Select(loginType)
	return rec, ok, nil
}

// IsValid reports whether the account has no known-rejected refresh token
func (p *SSOProvider) IsValid(accountID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cache == nil {
		return true
	}
	return p.cache.IsValid(accountID)
}

// Invalidate marks the account currently holding refreshToken as invalid.
// An unknown or already rotated token is a no-op. If the store cannot be
// re-read, the most recent snapshot is searched instead.
func (p *SSOProvider) Invalidate(ctx context.Context, refreshToken string) error {
	p.mu.Lock()
	if p.accessGroup == "" {
		p.mu.Unlock()
		return core.ErrNotPrepared
	}

	snap, restored, err := p.fetchLocked(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("re-reading sso records failed, using last snapshot")
		snap = p.last
	}

	var invalidated []core.InvalidationEntry
	if rec, ok := snap.FindByRefreshToken(refreshToken); ok {
		entry := core.InvalidationEntry{
			AccountID:     rec.AccountID,
			RefreshToken:  refreshToken,
			InvalidatedAt: p.now(),
		}
		if p.cache.Mark(entry) {
			p.invalidations.Save(ctx, p.cache)
			invalidated = append(invalidated, entry)
			p.logger.Info().Str("account_id", rec.AccountID).Msg("refresh token invalidated")
		}
	} else {
		p.logger.Debug().Msg("invalidated refresh token not present in snapshot")
	}
	p.mu.Unlock()

	p.publish(ctx, invalidated, restored)
	return nil
}

// IsAvailable reports whether at least one account can currently be read
func (p *SSOProvider) IsAvailable(ctx context.Context) bool {
	snap, err := p.FetchSnapshot(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("sso unavailable")
		return false
	}
	return !snap.IsEmpty()
}

// ListAccounts returns the public projection of every linked account in
// store order. Read and decode failures are returned, never hidden behind an
// empty list.
func (p *SSOProvider) ListAccounts(ctx context.Context) ([]core.AccountSummary, error) {
	snap, err := p.FetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	summaries := make([]core.AccountSummary, 0, snap.Len())
	for _, r := range snap.Records {
		summaries = append(summaries, core.NewAccountSummary(r, p.cache.IsValid(r.AccountID)))
	}
	return summaries, nil
}

// ResolveTarget returns the account a login target refers to. An explicit
// account id missing from the snapshot is core.ErrNoMatchingAccount even when
// the snapshot is empty.
func (p *SSOProvider) ResolveTarget(ctx context.Context, target core.LoginTarget) (core.AccountRecord, error) {
	snap, err := p.FetchSnapshot(ctx)
	if err != nil {
		return core.AccountRecord{}, err
	}
	if target.IsExplicit() {
		rec, ok := snap.Find(target.AccountID)
		if !ok {
			return core.AccountRecord{}, fmt.Errorf("%w: %s", core.ErrNoMatchingAccount, target.AccountID)
		}
		return rec, nil
	}

	rec, ok := snap.Select(target.Policy)
	if !ok {
		return core.AccountRecord{}, core.ErrNoAccounts
	}
	return rec, nil
}

// SelectForLogin returns the refresh token of the targeted account
func (p *SSOProvider) SelectForLogin(ctx context.Context, target core.LoginTarget) (string, error) {
	rec, err := p.ResolveTarget(ctx, target)
	if err != nil {
		return "", err
	}
	return rec.RefreshToken, nil
}

// ReportInvalid records that the backend rejected refreshToken
func (p *SSOProvider) ReportInvalid(ctx context.Context, refreshToken string) error {
	return p.Invalidate(ctx, refreshToken)
}

func (p *SSOProvider) publish(ctx context.Context, invalidated, restored []core.InvalidationEntry) {
	if p.eventPub == nil {
		return
	}
	for _, e := range invalidated {
		if err := p.eventPub.PublishInvalidated(ctx, e); err != nil {
			p.logger.Warn().Err(err).Str("account_id", e.AccountID).Msg("failed to publish invalidation event")
		}
	}
	for _, e := range restored {
		if err := p.eventPub.PublishRestored(ctx, e); err != nil {
			p.logger.Warn().Err(err).Str("account_id", e.AccountID).Msg("failed to publish restore event")
		}
	}
}
