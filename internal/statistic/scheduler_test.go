package statistic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trwlexporter/internal/models"
	"trwlexporter/internal/services"
	"trwlexporter/internal/structures"
	"trwlexporter/internal/testutil"
	"trwlexporter/internal/upstream"
)

func testConfig(accounts ...structures.Account) *structures.Config {
	return &structures.Config{
		Accounts: accounts,
		Upstream: structures.UpstreamConfig{
			FetchTimeout: time.Second,
		},
		Poll: structures.PollConfig{
			Interval:         time.Hour, // only the immediate first poll runs in tests
			MaxPagesPerCycle: 5,
			BackoffBase:      time.Millisecond,
			BackoffMax:       8 * time.Millisecond,
		},
	}
}

func account(id string) structures.Account {
	return structures.Account{ID: id, Label: id}
}

func page(next string, ids ...int64) *upstream.Page {
	p := &upstream.Page{NextCursor: next}
	for _, id := range ids {
		p.CheckIns = append(p.CheckIns, models.CheckIn{
			ID:        id,
			CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Category:  "regional",
			LineName:  "RE 7",
			Distance:  1000,
			Duration:  30,
			Points:    5,
		})
	}
	return p
}

func newTestScheduler(conf *structures.Config, client upstream.ClientInterface, svc services.ExporterServiceInterface) *Scheduler {
	fm := NewFileManager(&testutil.MockCompressor{}, svc)
	s := NewScheduler(conf, &testutil.MockLogger{}, svc, client, &testutil.MockMetrics{}, fm)
	return s.(*Scheduler)
}

func TestPollOnce_StopsAfterAllDuplicatePage(t *testing.T) {
	conf := testConfig(account("alice"))
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()

	// Two pages of new records, then a page the dedup set already knows.
	client.Queue("alice", testutil.MockResponse{Page: page("2", 10, 9)})
	client.Queue("alice", testutil.MockResponse{Page: page("3", 8, 7)})
	client.Queue("alice", testutil.MockResponse{Page: page("4", 8, 7)})

	s := newTestScheduler(conf, client, svc)
	acc := conf.Accounts[0]
	out, err := s.pollOnce(context.Background(), &acc, "")
	require.NoError(t, err)

	assert.Equal(t, 3, client.CallCount("alice"), "N new pages plus one duplicate page")
	assert.Equal(t, 4, out.Merged)
	assert.Equal(t, 2, out.Duplicates)
	assert.True(t, out.CaughtUp)
	assert.Empty(t, out.NextCursor)
}

func TestPollOnce_StopsOnUpstreamEnd(t *testing.T) {
	conf := testConfig(account("alice"))
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Page: page("", 3, 2, 1)})

	s := newTestScheduler(conf, client, svc)
	acc := conf.Accounts[0]
	out, err := s.pollOnce(context.Background(), &acc, "")
	require.NoError(t, err)

	assert.Equal(t, 1, client.CallCount("alice"))
	assert.Equal(t, 3, out.Merged)
	assert.True(t, out.CaughtUp)
}

func TestPollOnce_MaxPagesBoundCarriesCursor(t *testing.T) {
	conf := testConfig(account("alice"))
	conf.Poll.MaxPagesPerCycle = 2
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Page: page("2", 10)})
	client.Queue("alice", testutil.MockResponse{Page: page("3", 9)})
	client.Queue("alice", testutil.MockResponse{Page: page("4", 8)})

	s := newTestScheduler(conf, client, svc)
	acc := conf.Accounts[0]
	out, err := s.pollOnce(context.Background(), &acc, "")
	require.NoError(t, err)

	assert.Equal(t, 2, out.Pages)
	assert.False(t, out.CaughtUp)
	assert.Equal(t, "3", out.NextCursor, "catch-up resumes here next tick")

	// Next cycle picks up the remaining page and runs into upstream end.
	out, err = s.pollOnce(context.Background(), &acc, out.NextCursor)
	require.NoError(t, err)
	assert.True(t, out.CaughtUp)
	assert.Equal(t, []string{"", "2", "3", "4"}, client.Calls["alice"])

	state, _ := svc.Account("alice")
	assert.Equal(t, int64(3), state.Aggregate.Snapshot().CheckinsTotal)
}

func TestPollOnce_FetchFailureKeepsPartialProgress(t *testing.T) {
	conf := testConfig(account("alice"))
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Page: page("2", 10, 9)})
	client.Queue("alice", testutil.MockResponse{Err: &upstream.Error{Kind: upstream.KindTransient, StatusCode: 502, Err: errors.New("bad gateway")}})

	s := newTestScheduler(conf, client, svc)
	acc := conf.Accounts[0]
	out, err := s.pollOnce(context.Background(), &acc, "")
	require.Error(t, err)

	// Page 1 stays merged, the cursor still points at the failed page.
	assert.Equal(t, 2, out.Merged)
	assert.Equal(t, "2", out.NextCursor)

	state, _ := svc.Account("alice")
	assert.Equal(t, int64(2), state.Aggregate.Snapshot().CheckinsTotal)
}

func TestScheduler_PermanentErrorHaltsOnlyThatAccount(t *testing.T) {
	conf := testConfig(account("alice"), account("bob"))
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Err: &upstream.Error{Kind: upstream.KindPermanent, StatusCode: 403, Err: errors.New("token revoked")}})
	client.Queue("bob", testutil.MockResponse{Page: page("", 1, 2)})

	s := newTestScheduler(conf, client, svc)
	s.Init()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	alice, _ := svc.Account("alice")
	bob, _ := svc.Account("bob")
	assert.False(t, alice.Up())
	assert.True(t, bob.Up())
	assert.Equal(t, int64(2), bob.Aggregate.Snapshot().CheckinsTotal)
	assert.Equal(t, 1, client.CallCount("alice"), "halted account is not polled again")
}

func TestScheduler_TransientErrorRetriesAfterBackoff(t *testing.T) {
	conf := testConfig(account("alice"))
	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Err: &upstream.Error{Kind: upstream.KindTransient, StatusCode: 503, Err: errors.New("unavailable")}})
	client.Queue("alice", testutil.MockResponse{Page: page("", 1)})

	s := newTestScheduler(conf, client, svc)
	s.Init()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	state, _ := svc.Account("alice")
	assert.True(t, state.Up(), "transient failures never halt an account")
	assert.Equal(t, int64(1), state.Aggregate.Snapshot().CheckinsTotal)
	assert.GreaterOrEqual(t, client.CallCount("alice"), 2)
}

func TestScheduler_RateLimitHonorsRetryAfter(t *testing.T) {
	conf := testConfig(account("alice"))
	// Backoff far beyond the test window, so a retry within it can only
	// come from the upstream-provided delay.
	conf.Poll.BackoffBase = 10 * time.Second
	conf.Poll.BackoffMax = 20 * time.Second

	svc := services.NewExporterService(conf)
	client := testutil.NewMockClient()
	client.Queue("alice", testutil.MockResponse{Err: &upstream.Error{
		Kind:       upstream.KindRateLimited,
		StatusCode: 429,
		RetryAfter: 20 * time.Millisecond,
		Err:        errors.New("too many requests"),
	}})
	client.Queue("alice", testutil.MockResponse{Page: page("", 1)})

	s := newTestScheduler(conf, client, svc)
	s.Init()
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	state, _ := svc.Account("alice")
	assert.True(t, state.Up(), "rate limiting never halts an account")
	assert.Equal(t, int64(1), state.Aggregate.Snapshot().CheckinsTotal)
	assert.GreaterOrEqual(t, client.CallCount("alice"), 2, "retried after the Retry-After delay")
}

func TestScheduler_PersistAndRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.dat")

	conf := testConfig(account("alice"))
	conf.Persistence = structures.Persistence{FilePath: path, SaveInterval: time.Hour}

	svc := services.NewExporterService(conf)
	_, err := svc.Merge("alice", page("", 1, 2, 3).CheckIns)
	require.NoError(t, err)

	s := newTestScheduler(conf, testutil.NewMockClient(), svc)
	require.NoError(t, s.Persist())

	restoredSvc := services.NewExporterService(conf)
	rs := newTestScheduler(conf, testutil.NewMockClient(), restoredSvc)
	require.NoError(t, rs.Restore())

	state, _ := restoredSvc.Account("alice")
	assert.Equal(t, int64(3), state.Aggregate.Snapshot().CheckinsTotal)

	// Dedup survives: re-merging old ids is still a no-op.
	res, err := restoredSvc.Merge("alice", page("", 3).CheckIns)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Merged)
}

func TestScheduler_PersistDisabledWithoutFilePath(t *testing.T) {
	conf := testConfig(account("alice"))
	svc := services.NewExporterService(conf)
	s := newTestScheduler(conf, testutil.NewMockClient(), svc)

	assert.NoError(t, s.Persist())
	assert.NoError(t, s.Restore())
}

func TestScheduler_RestoreCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	conf := testConfig(account("alice"))
	conf.Persistence = structures.Persistence{FilePath: path, SaveInterval: time.Hour}
	svc := services.NewExporterService(conf)
	s := newTestScheduler(conf, testutil.NewMockClient(), svc)

	assert.Error(t, s.Restore())
}
