// Package probes implements the HTTP and TCP check executors. Each probe
// runs a single check under a caller-supplied timeout and returns a
// CheckOutcome — probe errors are data, never exceptions.
package probes

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Status mirrors statemachine.OutcomeStatus but is kept local so this
// package has no dependency on the state machine — only the scheduler
// bridges the two.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown"
)

// CheckOutcome is the result of running one probe.
type CheckOutcome struct {
	Status     Status
	LatencyMs  *int64
	HTTPStatus *int
	Error      *string
	Attempts   int
}

func errOutcome(reason string, attempts int) CheckOutcome {
	r := reason
	return CheckOutcome{Status: StatusDown, Error: &r, Attempts: attempts}
}

func unknownOutcome(reason string) CheckOutcome {
	r := reason
	return CheckOutcome{Status: StatusUnknown, Error: &r, Attempts: 1}
}

// blockedCIDRs is the target allow-list's deny set, covering loopback,
// link-local, private, and other non-routable/documentation ranges so a
// monitor target can never be pointed at the prober's own host or internal
// network.
var blockedCIDRs = mustParseCIDRs([]string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"224.0.0.0/4",
	"240.0.0.0/4",
	"::/128",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic("probes: invalid CIDR literal " + c)
		}
		out = append(out, n)
	}
	return out
}

// isBlockedHost reports whether host (already resolved to a literal IP, or
// the bare "localhost" name) must be rejected as a probe target.
func isBlockedHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		// Not a literal IP — DNS names are allowed here; the HTTP
		// transport's DialContext and the TCP probe check the connected
		// remote address with isBlockedIP instead.
		return false
	}
	return isBlockedIP(ip)
}

func isBlockedIP(ip net.IP) bool {
	for _, n := range blockedCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// isAllowedPort enforces the target allow-list's port rule: 80, 443, or
// [1024,65535].
func isAllowedPort(portStr string) bool {
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return false
	}
	return port == 80 || port == 443 || port >= 1024
}

// ValidateTarget applies the same host/port allow-list a probe enforces at
// dial time, but at write time, so an admin create/update rejects a
// disallowed target immediately instead of failing silently on every tick.
// monitorType is "http" or "tcp".
func ValidateTarget(monitorType, target string) error {
	switch monitorType {
	case "http":
		parsed, err := url.Parse(target)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("invalid url")
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("unsupported scheme")
		}
		if isBlockedHost(parsed.Hostname()) {
			return fmt.Errorf("target host is not allowed")
		}
		port := parsed.Port()
		if port == "" {
			if parsed.Scheme == "https" {
				port = "443"
			} else {
				port = "80"
			}
		}
		if !isAllowedPort(port) {
			return fmt.Errorf("target port is not allowed")
		}
		return nil
	case "tcp":
		host, port, err := net.SplitHostPort(target)
		if err != nil {
			return fmt.Errorf("invalid target: host:port expected")
		}
		if isBlockedHost(host) {
			return fmt.Errorf("target host is not allowed")
		}
		if !isAllowedPort(port) {
			return fmt.Errorf("target port is not allowed")
		}
		return nil
	default:
		return fmt.Errorf("unsupported monitor type")
	}
}
