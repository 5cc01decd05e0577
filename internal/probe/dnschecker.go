package probe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DNSDiagnoser wraps a Checker and annotates network failures with the DNS
// class of the target host, so an alert can tell a dead server from a dead
// zone. Other outcomes pass through untouched.
type DNSDiagnoser struct {
	Inner  Checker
	Lookup func(ctx context.Context, host string) DNSStatus
}

func NewDNSDiagnoser(inner Checker) *DNSDiagnoser {
	return &DNSDiagnoser{Inner: inner, Lookup: CheckDNS}
}

func (d *DNSDiagnoser) Check(ctx context.Context, target string) domain.CheckOutcome {
	out := d.Inner.Check(ctx, target)
	if out.Status != domain.StatusNetworkFailure {
		return out
	}
	lookup := d.Lookup
	if lookup == nil {
		lookup = CheckDNS
	}
	dns := lookup(ctx, extractHost(target))
	out.Error = fmt.Sprintf("%s (dns=%s)", out.Error, dns.Class)
	return out
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
