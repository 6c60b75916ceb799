package probes

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPRequest is the input shape of a TCP probe.
type TCPRequest struct {
	Target    string // "host:port" or "[ipv6]:port"
	TimeoutMs int
}

// TCPProbe dials a host:port target under a deadline.
type TCPProbe struct {
	dialer *net.Dialer
}

// NewTCPProbe constructs a TCP prober.
func NewTCPProbe() *TCPProbe {
	return &TCPProbe{dialer: &net.Dialer{}}
}

// Check executes one TCP probe under req.TimeoutMs.
func (p *TCPProbe) Check(ctx context.Context, req TCPRequest) CheckOutcome {
	host, port, err := net.SplitHostPort(req.Target)
	if err != nil {
		return unknownOutcome("invalid target")
	}
	if isBlockedHost(host) {
		return unknownOutcome("target host is not allowed")
	}
	if !isAllowedPort(port) {
		return unknownOutcome("target port is not allowed")
	}

	timeout := time.Duration(req.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		return unknownOutcome("invalid timeout")
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dialer.DialContext(dialCtx, "tcp", req.Target)
	if err != nil {
		reason := classifyNetError(err)
		if dialCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		return errOutcome(reason, 1)
	}
	defer conn.Close()

	if tcpAddr, ok := conn.RemoteAddr().(*net.TCPAddr); ok && isBlockedIP(tcpAddr.IP) {
		return unknownOutcome(fmt.Sprintf("target %s resolves to a blocked address", host))
	}

	latencyMs := time.Since(start).Milliseconds()
	return CheckOutcome{Status: StatusUp, LatencyMs: &latencyMs, Attempts: 1}
}
