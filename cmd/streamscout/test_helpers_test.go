package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"streamscout/internal/api"
	"streamscout/internal/config"
	"streamscout/internal/history"
	"streamscout/internal/manifestcache"
	"streamscout/internal/media"
	"streamscout/internal/resolver"
)

type stubLookup map[string]string

func (l stubLookup) CanonicalID(_ context.Context, _ media.Kind, catalogID string) (string, bool) {
	id, ok := l[catalogID]
	return id, ok
}

type stubSniffer struct {
	mu     sync.Mutex
	result string
	urls   []string
}

func (s *stubSniffer) Sniff(_ context.Context, embedURL string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, embedURL)
	return s.result, s.result != "", nil
}

type cliTestEnv struct {
	configPath string
	baseDir    string
	cache      *manifestcache.Cache
	resolver   *resolver.Resolver
	store      *history.Store
	server     *api.Server
	sniffer    *stubSniffer
}

// setupCLITestEnv starts an API server backed by stubs and writes a config
// pointing the CLI at it.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("STREAMSCOUT_API_TOKEN", "")

	stateDir := filepath.Join(base, "state")
	store, err := history.Open(filepath.Join(stateDir, "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sniff := &stubSniffer{result: "https://cdn.example/master.m3u8"}
	cache := manifestcache.New(time.Hour)
	res := resolver.New(stubLookup{"27205": "tt1375666", "1399": "tt0944947"}, sniff, cache, resolver.WithHistory(store))

	srv, err := api.NewServer(api.Options{Bind: "127.0.0.1:0", Token: "tok"}, api.Deps{
		Resolver: res,
		Cache:    cache,
		History:  store,
	})
	if err != nil {
		t.Fatalf("api.NewServer: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("server start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(time.Second) })

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, srv.Addr(), stateDir)

	return &cliTestEnv{
		configPath: configPath,
		baseDir:    base,
		cache:      cache,
		resolver:   res,
		store:      store,
		server:     srv,
		sniffer:    sniff,
	}
}

// stubStack returns a stackBuilder sharing env's cache and history instead of launching a browser.
func (e *cliTestEnv) stubStack() stackBuilder {
	return func(cfg *config.Config, logger *slog.Logger) (*stack, error) {
		res := resolver.New(stubLookup{"27205": "tt1375666", "1399": "tt0944947"}, e.sniffer, e.cache,
			resolver.WithHistory(e.store),
			resolver.WithLogger(logger),
			resolver.WithEmbedBase(cfg.Embed.BaseURL),
			resolver.WithDefaultLanguage(cfg.Embed.DefaultLanguage),
		)
		return &stack{resolver: res, cache: e.cache, history: e.store}, nil
	}
}

func writeTestConfig(t *testing.T, path, bind, stateDir string) {
	t.Helper()
	content := fmt.Sprintf(`[server]
bind = %q
api_token = "tok"
state_dir = %q

[tmdb]
api_key = "test-key"

[embed]
default_language = "English"

[logging]
format = "console"
level = "error"
`, bind, stateDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string, build stackBuilder) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithStack(build)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
