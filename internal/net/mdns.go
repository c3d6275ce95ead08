package net

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	serviceType = "_gridspace._tcp"
	codePrefix  = "code="
)

// Host is a session server found on the local network.
type Host struct {
	Name  string
	Addr  string
	Codes []string
}

// Advertisement is a running mDNS responder. Close stops it.
type Advertisement struct {
	server *mdns.Server
}

func (a *Advertisement) Close() error {
	return a.server.Shutdown()
}

// Advertise announces a server listening on port, listing the session codes
// it hosts in the TXT record.
func Advertise(port int, codes ...string) (*Advertisement, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	info := []string{"GridSpace"}
	for _, c := range codes {
		info = append(info, codePrefix+c)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, []net.IP{LocalIP()}, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Browse queries the network for servers for up to timeout and calls found
// for each one that answers.
func Browse(ctx context.Context, timeout time.Duration, found func(Host)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if h, ok := hostOf(e); ok && ctx.Err() == nil {
				found(h)
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("mDNS lookup: %w", err)
	}
	return ctx.Err()
}

// FindSession browses for the server hosting code.
func FindSession(ctx context.Context, code string, timeout time.Duration) (Host, error) {
	var match *Host
	err := Browse(ctx, timeout, func(h Host) {
		if match == nil && h.Hosts(code) {
			match = &h
		}
	})
	if err != nil {
		return Host{}, err
	}
	if match == nil {
		return Host{}, fmt.Errorf("no server on the local network hosts session %s", code)
	}
	return *match, nil
}

// Hosts reports whether h advertised code.
func (h Host) Hosts(code string) bool {
	for _, c := range h.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func hostOf(e *mdns.ServiceEntry) (Host, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Host{}, false
	}
	h := Host{
		Name: strings.TrimSuffix(e.Name, "."+serviceType+".local."),
		Addr: fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port),
	}
	for _, f := range e.InfoFields {
		if c, ok := strings.CutPrefix(f, codePrefix); ok {
			h.Codes = append(h.Codes, c)
		}
	}
	return h, true
}
