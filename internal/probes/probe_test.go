package probes

import "testing"

func TestIsBlockedHost(t *testing.T) {
	cases := map[string]bool{
		"localhost":    true,
		"127.0.0.1":    true,
		"10.0.0.5":     true,
		"192.168.1.1":  true,
		"169.254.1.1":  true,
		"8.8.8.8":      false,
		"example.com":  false,
		"203.0.113.10": false,
	}
	for host, want := range cases {
		if got := isBlockedHost(host); got != want {
			t.Errorf("isBlockedHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestIsAllowedPort(t *testing.T) {
	cases := map[string]bool{
		"80":    true,
		"443":   true,
		"1024":  true,
		"65535": true,
		"8080":  true,
		"22":    false,
		"0":     false,
		"70000": false,
		"abc":   false,
	}
	for port, want := range cases {
		if got := isAllowedPort(port); got != want {
			t.Errorf("isAllowedPort(%q) = %v, want %v", port, got, want)
		}
	}
}

func TestStatusMatches(t *testing.T) {
	if !statusMatches(200, nil) {
		t.Error("200 should pass the default 2xx range")
	}
	if statusMatches(404, nil) {
		t.Error("404 should not pass the default 2xx range")
	}
	if !statusMatches(404, []int{404, 410}) {
		t.Error("404 should pass an explicit expected-status set containing it")
	}
}

func TestValidateTargetHTTP(t *testing.T) {
	if err := ValidateTarget("http", "https://example.com"); err != nil {
		t.Errorf("expected a public https target to be allowed, got %v", err)
	}
	if err := ValidateTarget("http", "http://127.0.0.1/health"); err == nil {
		t.Error("expected a loopback target to be rejected")
	}
	if err := ValidateTarget("http", "ftp://example.com"); err == nil {
		t.Error("expected a non-http(s) scheme to be rejected")
	}
	if err := ValidateTarget("http", "https://example.com:22"); err == nil {
		t.Error("expected a disallowed port to be rejected")
	}
	if err := ValidateTarget("http", "not a url"); err == nil {
		t.Error("expected an unparseable url to be rejected")
	}
}

func TestValidateTargetTCP(t *testing.T) {
	if err := ValidateTarget("tcp", "example.com:5432"); err != nil {
		t.Errorf("expected a public host:port to be allowed, got %v", err)
	}
	if err := ValidateTarget("tcp", "192.168.1.1:5432"); err == nil {
		t.Error("expected a private-range host to be rejected")
	}
	if err := ValidateTarget("tcp", "example.com:22"); err == nil {
		t.Error("expected a disallowed port to be rejected")
	}
	if err := ValidateTarget("tcp", "no-port-here"); err == nil {
		t.Error("expected a target without a port to be rejected")
	}
}

func TestValidateTargetUnsupportedType(t *testing.T) {
	if err := ValidateTarget("ping", "example.com"); err == nil {
		t.Error("expected an unsupported monitor type to be rejected")
	}
}
