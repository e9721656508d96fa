package app

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubportal/weekvote/internal/auth"
	"github.com/clubportal/weekvote/internal/config"
	"github.com/clubportal/weekvote/internal/logger"
)

func testConfig() config.Config {
	return config.Config{
		Port:     8082,
		DBPath:   ":memory:",
		Timezone: "UTC",
		Locale:   "en",
		BaseURL:  "http://localhost:8082",
	}
}

func createTestApp(t *testing.T) *App {
	t.Helper()
	app, err := New(logger.New(), testConfig(), auth.New("test-password"))
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}
	return app
}

func TestNew_InitializesApp(t *testing.T) {
	app := createTestApp(t)
	defer app.Close()

	if app.handlers == nil {
		t.Error("expected handlers to be initialized")
	}
	if app.repo == nil {
		t.Error("expected repo to be initialized")
	}
	if app.cancelCountdown == nil {
		t.Error("expected cancelCountdown to be set")
	}
	if app.baseURL != "http://localhost:8082" {
		t.Errorf("base URL = %q, want the configured one", app.baseURL)
	}
}

func TestNew_FailsWithBadDBPath(t *testing.T) {
	cfg := testConfig()
	cfg.DBPath = "/nonexistent/path/db.sqlite"

	if _, err := New(logger.New(), cfg, auth.New("pw")); err == nil {
		t.Error("expected error for invalid db path")
	}
}

func TestNew_FailsWithBadTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus_Mons"

	if _, err := New(logger.New(), cfg, auth.New("pw")); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestApp_Router_ServesRequests(t *testing.T) {
	app := createTestApp(t)
	defer app.Close()

	server := httptest.NewServer(app.Router())
	defer server.Close()

	// No session yet, but the route exists and answers JSON
	resp, err := http.Get(server.URL + "/api/session/active")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 with no active session, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}

func TestApp_Close_Idempotent(t *testing.T) {
	app := createTestApp(t)

	app.Close()
	// A second close must not panic
	app.Close()
}

func TestIsPrivate172(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.15.0.1", false},
		{"172.32.0.1", false},
		{"192.168.1.1", false},
		{"10.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isPrivate172(net.ParseIP(tt.ip)); got != tt.expected {
				t.Errorf("isPrivate172(%s) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}

func TestIsPrivate172_NonIPv4(t *testing.T) {
	if isPrivate172(nil) {
		t.Error("isPrivate172(nil) should be false")
	}
	if isPrivate172(net.ParseIP("fe80::1")) {
		t.Error("isPrivate172 should be false for IPv6")
	}
}

// mockInterface implements networkInterface for testing
type mockInterface struct {
	flags net.Flags
	addrs []net.Addr
	err   error
}

func (m mockInterface) Flags() net.Flags           { return m.flags }
func (m mockInterface) Addrs() ([]net.Addr, error) { return m.addrs, m.err }

// mockNetworkProvider implements networkProvider for testing
type mockNetworkProvider struct {
	interfaces []networkInterface
	err        error
}

func (m mockNetworkProvider) Interfaces() ([]networkInterface, error) {
	return m.interfaces, m.err
}

func TestGetPreferredIP_NetworkError(t *testing.T) {
	provider := mockNetworkProvider{err: net.ErrClosed}

	if ip := getPreferredIP(provider); ip != "localhost" {
		t.Errorf("expected 'localhost' on error, got: %s", ip)
	}
}

func TestGetPreferredIP_PrefersPrivateRange(t *testing.T) {
	public := &net.IPNet{IP: net.ParseIP("203.0.113.5"), Mask: net.CIDRMask(24, 32)}
	private := &net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)}

	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{public, private}},
		},
	}

	if ip := getPreferredIP(provider); ip != "192.168.1.20" {
		t.Errorf("expected the private address, got: %s", ip)
	}
}

func TestGetPreferredIP_FallsBackToFirstCandidate(t *testing.T) {
	public := &net.IPNet{IP: net.ParseIP("203.0.113.5"), Mask: net.CIDRMask(24, 32)}

	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp, addrs: []net.Addr{public}},
		},
	}

	if ip := getPreferredIP(provider); ip != "203.0.113.5" {
		t.Errorf("expected the only candidate, got: %s", ip)
	}
}

func TestGetPreferredIP_SkipsLoopbackAndDownInterfaces(t *testing.T) {
	loopback := &net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)}
	down := &net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)}

	provider := mockNetworkProvider{
		interfaces: []networkInterface{
			mockInterface{flags: net.FlagUp | net.FlagLoopback, addrs: []net.Addr{loopback}},
			mockInterface{flags: 0, addrs: []net.Addr{down}},
		},
	}

	if ip := getPreferredIP(provider); ip != "localhost" {
		t.Errorf("expected 'localhost' with no usable interface, got: %s", ip)
	}
}
