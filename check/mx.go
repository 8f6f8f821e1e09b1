package check

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/optimode/leadscout/internal/dnscache"
	"github.com/optimode/leadscout/types"
)

// MXConfig configures the MX stage.
type MXConfig struct {
	// FallbackToA accepts an A record as an implicit mail exchanger when
	// the domain has no MX records (RFC 5321 §5.1).
	FallbackToA bool
	// HostLookup resolves A records for the fallback. Injectable for
	// tests; defaults to net.DefaultResolver.
	HostLookup func(ctx context.Context, domain string) ([]string, error)
}

// MXResult is the outcome of the MX stage for one domain.
type MXResult struct {
	State  types.MXState
	Hosts  []string // mail exchangers in preference order, when found
	Detail string
	Err    error // the lookup error behind an unknown state, if any
}

// MXChecker resolves a domain's mail exchangers through the run-scoped
// DNS cache and classifies the outcome as found, none, or unknown.
type MXChecker struct {
	cache *dnscache.Cache
	cfg   MXConfig
}

// NewMXChecker creates the MX stage around a shared lookup cache.
func NewMXChecker(cache *dnscache.Cache, cfg MXConfig) *MXChecker {
	if cfg.HostLookup == nil {
		cfg.HostLookup = func(ctx context.Context, domain string) ([]string, error) {
			return net.DefaultResolver.LookupHost(ctx, domain)
		}
	}
	return &MXChecker{cache: cache, cfg: cfg}
}

// Check resolves MX records for domain. A lookup that verifiably returns
// no records yields MXNone; a lookup that itself failed or timed out
// yields MXUnknown, which is a different claim.
func (c *MXChecker) Check(ctx context.Context, domain string) MXResult {
	records, err := c.cache.LookupMX(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return MXResult{State: types.MXNone, Detail: "domain does not exist"}
		}
		return MXResult{
			State:  types.MXUnknown,
			Detail: fmt.Sprintf("MX lookup failed: %v", err),
			Err:    err,
		}
	}

	if len(records) == 0 {
		return c.fallbackToA(ctx, domain)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Pref < records[j].Pref })
	hosts := make([]string, 0, len(records))
	for _, r := range records {
		if h := strings.TrimSuffix(r.Host, "."); h != "" {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		return MXResult{State: types.MXNone, Detail: "only null MX records found"}
	}

	return MXResult{
		State:  types.MXFound,
		Hosts:  hosts,
		Detail: fmt.Sprintf("%d MX record(s)", len(hosts)),
	}
}

func (c *MXChecker) fallbackToA(ctx context.Context, domain string) MXResult {
	if !c.cfg.FallbackToA {
		return MXResult{State: types.MXNone, Detail: "no MX records"}
	}
	addrs, err := c.cfg.HostLookup(ctx, domain)
	if err != nil || len(addrs) == 0 {
		return MXResult{State: types.MXNone, Detail: "no MX records and no A record"}
	}
	// The domain itself acts as the implicit exchanger.
	return MXResult{
		State:  types.MXFound,
		Hosts:  []string{domain},
		Detail: "no MX records, implicit MX via A record",
	}
}
