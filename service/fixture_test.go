package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kakao/partnersso/adapters/prefs"
	"github.com/kakao/partnersso/adapters/recordcodec"
	"github.com/kakao/partnersso/adapters/securestore"
	"github.com/kakao/partnersso/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testGroup = "ABCDE12345.com.kakao.sso"
	testSeed  = "kakao-talk-sso-7f3a"
)

type recordingPublisher struct {
	mu          sync.Mutex
	invalidated []core.InvalidationEntry
	restored    []core.InvalidationEntry
	err         error
}

func (r *recordingPublisher) PublishInvalidated(_ context.Context, e core.InvalidationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, e)
	return r.err
}

func (r *recordingPublisher) PublishRestored(_ context.Context, e core.InvalidationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restored = append(r.restored, e)
	return r.err
}

func (r *recordingPublisher) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invalidated), len(r.restored)
}

type fixture struct {
	store    *securestore.MemoryStore
	prefs    *prefs.MemoryPreferences
	codec    *recordcodec.JSONCodec
	events   *recordingPublisher
	phase    core.Phase
	provider *SSOProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  securestore.NewMemoryStore(),
		prefs:  prefs.NewMemoryPreferences(),
		codec:  recordcodec.NewJSONCodec(),
		events: &recordingPublisher{},
		phase:  core.PhaseProduction,
	}
	f.provider = f.newProvider(t)
	return f
}

// newProvider builds a provider over the fixture's store and preferences,
// as a restarted process would.
func (f *fixture) newProvider(t *testing.T) *SSOProvider {
	t.Helper()
	p := NewSSOProvider(f.store, f.codec, f.prefs, f.events, f.phase, zerolog.Nop())
	require.NoError(t, p.Prepare(context.Background(), testGroup))
	return p
}

func (f *fixture) writeSeed(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Put(context.Background(), SeedService, testGroup, Obfuscate(testSeed)))
}

// writeRecords plays the Kakao Talk agent: it stores the seed and the full record set
func (f *fixture) writeRecords(t *testing.T, records ...core.AccountRecord) {
	t.Helper()
	f.writeSeed(t)
	data, err := f.codec.Encode(core.Snapshot{Records: records})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), ServiceName(testSeed, f.phase), testGroup, data))
}

func (f *fixture) writeRaw(t *testing.T, data []byte) {
	t.Helper()
	f.writeSeed(t)
	require.NoError(t, f.store.Put(context.Background(), ServiceName(testSeed, f.phase), testGroup, data))
}

func account(id, refreshToken string, lastLogin int64) core.AccountRecord {
	return core.AccountRecord{
		AccountID:     id,
		AccessToken:   "at-" + id,
		RefreshToken:  refreshToken,
		LastLoginTime: time.Unix(lastLogin, 0).UTC(),
		Profile: core.DisplayProfile{
			Nickname:  "nick-" + id,
			DisplayID: id + "@kakao.com",
		},
	}
}
