package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"pickup-games/internal/app/ratings"
	"pickup-games/internal/auth"
	"pickup-games/internal/config"
	domaingames "pickup-games/internal/domain/games"
	"pickup-games/internal/store"
	"pickup-games/internal/testutil"
)

const testSecret = "server-test-secret"

func testConfig() config.Config {
	return config.Config{
		Port:            "0",
		MutationRetries: 3,
		Auth:            config.AuthConfig{JWTSecret: testSecret},
		Notify:          config.NotifyConfig{Timeout: time.Second},
	}
}

func futureInput(maxPlayers int) domaingames.CreateInput {
	in := testutil.SampleCreateInput(maxPlayers)
	in.Date = time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	return in
}

func TestServerServesHealthAndGames(t *testing.T) {
	rec, _ := testutil.NewRecorderWithShutdown()
	srv := newServerWithBackend(testConfig(), nil, store.NewMemoryStore(), rec)
	h := srv.Handler()

	rr := testutil.Serve(h, http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	token, err := auth.NewVerifier(auth.Config{Secret: testSecret}).Issue("host-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rr = testutil.ServeAuthed(t, h, http.MethodPost, "/games", token, futureInput(4))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var created struct {
		ID     string `json:"id"`
		HostID string `json:"hostId"`
	}
	testutil.DecodeJSON(t, rr, &created)
	if created.ID == "" || created.HostID != "host-1" {
		t.Fatalf("unexpected created game %+v", created)
	}

	rr = testutil.ServeAuthed(t, h, http.MethodGet, "/games/"+created.ID, token, nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.ServeAuthed(t, h, http.MethodGet, "/games", "", nil)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	if snap := rec.Snapshot("create_game"); snap.Calls != 1 {
		t.Fatalf("expected create_game to be recorded once, got %+v", snap)
	}
}

func TestServerReadyReportsReconcilerWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Reconcile = config.ReconcileConfig{Enabled: true, Interval: time.Hour}
	srv := newServerWithBackend(cfg, nil, store.NewMemoryStore(), nil)

	if _, ok := srv.reconciler.(*ratings.Reconciler); !ok {
		t.Fatalf("expected rating reconciler to be wired, got %T", srv.reconciler)
	}
	rr := testutil.Serve(srv.Handler(), http.MethodGet, "/ready", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body map[string]any
	testutil.DecodeJSON(t, rr, &body)
	if _, ok := body["reconciler"]; !ok {
		t.Fatalf("expected reconciler status in ready body, got %v", body)
	}
}

func TestServerWithoutReconcilerHasNoWorker(t *testing.T) {
	srv := newServerWithBackend(testConfig(), nil, store.NewMemoryStore(), nil)
	if srv.reconciler != nil {
		t.Fatalf("expected no reconciler when disabled")
	}
	srv.gracefulShutdown()
}

func TestNewUsesMemoryStoreByDefault(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := srv.store.(*store.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", srv.store)
	}
	if srv.gamesService == nil || srv.ratingsService == nil || srv.usersService == nil {
		t.Fatalf("expected services to be wired")
	}
	if srv.Handler() == nil {
		t.Fatalf("expected handler")
	}
}

func TestNewFailsWhenMongoUnavailable(t *testing.T) {
	orig := mongoOpener
	defer func() { mongoOpener = orig }()
	mongoOpener = func(ctx context.Context, uri, database string) (backend, error) {
		return nil, errors.New("no route to host")
	}

	cfg := testConfig()
	cfg.Store = config.StoreConfig{Backend: config.StoreMongo, MongoURI: "mongodb://db:27017", MongoDatabase: "pickup"}
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestOpenStoreRequiresMongoURI(t *testing.T) {
	_, err := openStore(context.Background(), config.StoreConfig{Backend: config.StoreMongo}, nil)
	if err == nil {
		t.Fatalf("expected error without uri")
	}
}

type closingStore struct {
	*store.MemoryStore
	closed int
}

func (c *closingStore) Close(ctx context.Context) error {
	c.closed++
	return nil
}

func TestOpenStoreUsesMongoOpener(t *testing.T) {
	orig := mongoOpener
	defer func() { mongoOpener = orig }()

	fake := &closingStore{MemoryStore: store.NewMemoryStore()}
	var gotURI, gotDB string
	mongoOpener = func(ctx context.Context, uri, database string) (backend, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("expected connect deadline")
		}
		gotURI, gotDB = uri, database
		return fake, nil
	}

	st, err := openStore(context.Background(), config.StoreConfig{
		Backend:       config.StoreMongo,
		MongoURI:      "mongodb://db:27017",
		MongoDatabase: "pickup",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st != fake || gotURI != "mongodb://db:27017" || gotDB != "pickup" {
		t.Fatalf("opener not used as expected: %q %q", gotURI, gotDB)
	}

	srv := newServerWithBackend(testConfig(), nil, st, nil)
	srv.gracefulShutdown()
	if fake.closed != 1 {
		t.Fatalf("expected store Close on shutdown, got %d", fake.closed)
	}
}

func TestGracefulShutdownCallsStopAndShutdown(t *testing.T) {
	w := &testutil.StubWorker{}
	httpSrv := &testutil.StubHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, w)
	srv.gracefulShutdown()

	if w.StopCalls != 1 {
		t.Fatalf("expected worker Stop to be called once, got %d", w.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
}

func TestGracefulShutdownTimesOutLongRunningShutdown(t *testing.T) {
	w := &testutil.StubWorker{}
	blocking := &testutil.BlockingHTTPServer{
		AddrVal:    ":0",
		HandlerVal: http.NewServeMux(),
		Unblock:    make(chan struct{}),
	}

	original := shutdownTimeout
	shutdownTimeout = 5 * time.Millisecond
	defer func() { shutdownTimeout = original }()

	srv := newServerWithDeps(config.Config{}, nil, blocking, w)

	start := time.Now()
	srv.gracefulShutdown()
	elapsed := time.Since(start)

	if blocking.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", blocking.ShutdownCalls)
	}
	if w.StopCalls != 1 {
		t.Fatalf("expected worker Stop to be called once, got %d", w.StopCalls)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took too long: %s", elapsed)
	}
}

func TestGracefulShutdownContinuesWhenWorkerStopErrors(t *testing.T) {
	w := &testutil.StubWorker{Err: errors.New("stop failure")}
	httpSrv := &testutil.StubHTTPServer{}
	logger, buf := testutil.NewBufferLogger()

	srv := newServerWithDeps(config.Config{}, logger, httpSrv, w)
	srv.gracefulShutdown()

	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown to be called once, got %d", httpSrv.ShutdownCalls)
	}
	if !containsAll(buf.String(), "failed to stop reconciler", "shutdown complete") {
		t.Fatalf("expected stop failure and completion logs, got %s", buf.String())
	}
}

func TestGracefulShutdownDrainsNotifier(t *testing.T) {
	httpSrv := &testutil.StubHTTPServer{}
	srv := newServerWithDeps(config.Config{}, nil, httpSrv, nil)

	drained := 0
	srv.notifierClose = func(context.Context) error {
		if httpSrv.ShutdownCalls != 1 {
			t.Errorf("expected http shutdown before the notifier drains")
		}
		drained++
		return nil
	}
	srv.gracefulShutdown()

	if drained != 1 {
		t.Fatalf("expected notifier drain once, got %d", drained)
	}
}

func TestServerStartHandlesListenErrorAndStops(t *testing.T) {
	httpSrv := &testutil.ErrHTTPServer{}
	srv := newServerWithDeps(config.Config{}, nil, httpSrv, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	stopCalled := make(chan struct{})
	stop := func() {
		close(stopCalled)
		wg.Done()
	}

	srv.startServer(stop)

	select {
	case <-stopCalled:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected stop to be called on listen failure")
	}

	wg.Wait()
}

func TestRunCancelsAndStopsComponents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &testutil.StubWorker{}
	httpSrv := &testutil.CloseableHTTPServer{}

	srv := newServerWithDeps(config.Config{}, nil, httpSrv, w)

	done := make(chan struct{})
	go func() {
		srv.Run(ctx, cancel)
		close(done)
	}()

	// Let Start be invoked.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("run did not return after cancel")
	}

	if w.StartCalls != 1 {
		t.Fatalf("expected worker Start called once, got %d", w.StartCalls)
	}
	if w.StopCalls != 1 {
		t.Fatalf("expected worker Stop called once, got %d", w.StopCalls)
	}
	if httpSrv.ShutdownCalls != 1 {
		t.Fatalf("expected server Shutdown called once, got %d", httpSrv.ShutdownCalls)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
