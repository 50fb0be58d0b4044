package telemetry

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Source is one way to learn a visitor's address for a single family.
// Sources are tried in order until one succeeds.
type Source struct {
	Name   string
	Lookup func(ctx context.Context) (string, error)
}

type family int

const (
	familyV4 family = iota
	familyV6
)

// Resolver finds a visitor's IPv4 and IPv6 addresses from ordered per-family
// source lists. The two families resolve concurrently; within a family the
// first source that yields an address of the right family wins, and total
// failure degrades to the NotAvailable sentinel.
type Resolver struct {
	v4 []Source
	v6 []Source
}

// NewResolver builds a resolver over the request that carried the snapshot.
// Proxy-forwarded headers are preferred over the socket's remote address,
// matching how the service is deployed behind a load balancer.
func NewResolver(meta RequestMeta) *Resolver {
	build := func(f family) []Source {
		return []Source{
			forwardedSource(meta, f),
			headerSource(meta, "X-Real-IP", f),
			remoteAddrSource(meta, f),
		}
	}
	return &Resolver{v4: build(familyV4), v6: build(familyV6)}
}

// Resolve returns the visitor's (IPv4, IPv6) addresses, each NotAvailable
// when every source for its family failed.
func (r *Resolver) Resolve(ctx context.Context) (string, string) {
	var v4, v6 string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v4 = trySources(ctx, r.v4)
	}()
	go func() {
		defer wg.Done()
		v6 = trySources(ctx, r.v6)
	}()
	wg.Wait()
	return v4, v6
}

func trySources(ctx context.Context, sources []Source) string {
	for _, s := range sources {
		addr, err := s.Lookup(ctx)
		if err != nil {
			continue
		}
		return addr
	}
	return NotAvailable
}

// matchFamily normalizes addr and reports whether it belongs to f.
func matchFamily(addr string, f family) (string, bool) {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return "", false
	}
	isV4 := ip.To4() != nil
	if isV4 != (f == familyV4) {
		return "", false
	}
	return ip.String(), true
}

// forwardedSource scans X-Forwarded-For left to right for the first address
// of the wanted family. The leftmost entry is the original client.
func forwardedSource(meta RequestMeta, f family) Source {
	return Source{
		Name: "x-forwarded-for",
		Lookup: func(ctx context.Context) (string, error) {
			for _, part := range strings.Split(meta.Header.Get("X-Forwarded-For"), ",") {
				if ip, ok := matchFamily(part, f); ok {
					return ip, nil
				}
			}
			return "", fmt.Errorf("no %s address in X-Forwarded-For", familyName(f))
		},
	}
}

func headerSource(meta RequestMeta, header string, f family) Source {
	return Source{
		Name: strings.ToLower(header),
		Lookup: func(ctx context.Context) (string, error) {
			if ip, ok := matchFamily(meta.Header.Get(header), f); ok {
				return ip, nil
			}
			return "", fmt.Errorf("no %s address in %s", familyName(f), header)
		},
	}
}

func remoteAddrSource(meta RequestMeta, f family) Source {
	return Source{
		Name: "remote-addr",
		Lookup: func(ctx context.Context) (string, error) {
			host, _, err := net.SplitHostPort(meta.RemoteAddr)
			if err != nil {
				host = meta.RemoteAddr
			}
			if ip, ok := matchFamily(host, f); ok {
				return ip, nil
			}
			return "", fmt.Errorf("remote address is not %s", familyName(f))
		},
	}
}

func familyName(f family) string {
	if f == familyV4 {
		return "IPv4"
	}
	return "IPv6"
}
