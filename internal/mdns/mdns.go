package mdns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MuhamedUsman/letstore/internal/network"
	"github.com/brutella/dnssd"
	"github.com/brutella/dnssd/log"
)

const (
	// OwnerKey, PathKey and SchemeKey are the TXT record keys of an announcement
	OwnerKey    = "owner"
	PathKey     = "path"
	SchemeKey   = "scheme"
	mdnsService = "_letstore._tcp"
	domain      = "local."
)

var (
	ErrNotFound = errors.New("mdns instance not found")

	once sync.Once
	mdns *MDNS
)

func init() {
	log.Info.Disable()
}

// ServiceEntry is a storage API announced on the local network.
type ServiceEntry struct {
	Owner, Hostname, IP string
	Port                int
	// Path the API is mounted under, e.g. /api
	Path   string
	Scheme string
}

// BaseURL is what the API client is configured with.
func (e ServiceEntry) BaseURL() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
	return scheme + "://" + host + "/" + strings.Trim(e.Path, "/")
}

// ServiceEntries maps service instance names to their details.
type ServiceEntries map[string]ServiceEntry

// Announcement describes a storage API to advertise.
type Announcement struct {
	Instance string
	Host     string
	Port     int
	Path     string
	Scheme   string
	Owner    string
}

// MDNS publishes and discovers storage APIs on the local network.
type MDNS struct {
	mu      sync.RWMutex
	entries ServiceEntries
	// closed and replaced on every change
	changed chan struct{}
}

// Get returns the process wide MDNS instance.
func Get() *MDNS {
	once.Do(func() {
		mdns = New()
	})
	return mdns
}

func New() *MDNS {
	return &MDNS{entries: make(ServiceEntries), changed: make(chan struct{})}
}

// Publish advertises the announcement a until ctx is canceled, it blocks while responding.
func (r *MDNS) Publish(ctx context.Context, a Announcement) error {
	ip, err := network.GetOutboundIP()
	if err != nil {
		return err
	}
	text := map[string]string{PathKey: a.Path}
	if a.Owner != "" {
		text[OwnerKey] = a.Owner
	}
	if a.Scheme != "" {
		text[SchemeKey] = a.Scheme
	}
	sv, err := dnssd.NewService(dnssd.Config{
		Name: a.Instance,
		Type: mdnsService,
		Host: a.Host,
		Port: a.Port,
		IPs:  []net.IP{ip},
		Text: text,
	})
	if err != nil {
		return fmt.Errorf("registering mdns entry: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("creating mdns responder: %w", err)
	}

	hdl, err := rp.Add(sv)
	if err != nil {
		return fmt.Errorf("adding service to mdns responder: %w", err)
	}

	go func() {
		<-ctx.Done()
		rp.Remove(hdl)
	}()

	slog.Info("announcing on the local network", "instance", a.Instance, "ip", ip.String(), "port", a.Port)
	if err = rp.Respond(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("responding to mdns requests: %w", err)
	}
	return nil
}

// Discover browses the network until ctx ends, entries are kept up to date
// and can be read with Entries.
func (r *MDNS) Discover(ctx context.Context) error {
	addFunc := dnssd.AddFunc(func(e dnssd.BrowseEntry) {
		se, ok := entryFrom(e)
		if !ok {
			return
		}
		r.mu.Lock()
		r.entries[e.Name] = se
		r.notifyLocked()
		r.mu.Unlock()
	})
	rmvFunc := dnssd.RmvFunc(func(e dnssd.BrowseEntry) {
		r.mu.Lock()
		delete(r.entries, e.Name)
		r.notifyLocked()
		r.mu.Unlock()
	})
	service := fmt.Sprintf("%s.%s", mdnsService, domain)
	err := dnssd.LookupType(ctx, service, addFunc, rmvFunc)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Resolve discovers the network for at most timeout and returns the base URL
// of instance as soon as it shows up.
func (r *MDNS) Resolve(ctx context.Context, instance string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- r.Discover(ctx) }()

	for {
		ch := r.changes()
		if e, ok := r.Entries()[instance]; ok {
			return e.BaseURL(), nil
		}
		select {
		case <-ch:
		case err := <-errCh:
			if err != nil {
				return "", fmt.Errorf("discovering %q: %w", instance, err)
			}
			return "", fmt.Errorf("%w: %q", ErrNotFound, instance)
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %q", ErrNotFound, instance)
		}
	}
}

// NotifyOnChange blocks until the discovered entries change or ctx ends.
func (r *MDNS) NotifyOnChange(ctx context.Context) error {
	select {
	case <-r.changes():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries returns a copy of all currently discovered services.
func (r *MDNS) Entries() ServiceEntries {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.entries)
}

func (r *MDNS) changes() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changed
}

func (r *MDNS) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func entryFrom(e dnssd.BrowseEntry) (ServiceEntry, bool) {
	var ip net.IP
	for _, candidate := range e.IPs {
		if v4 := candidate.To4(); v4 != nil {
			ip = v4
			break
		}
		if ip == nil {
			ip = candidate
		}
	}
	if ip == nil {
		return ServiceEntry{}, false
	}
	return ServiceEntry{
		Owner:    e.Text[OwnerKey],
		Hostname: e.Host,
		IP:       ip.String(),
		Port:     e.Port,
		Path:     e.Text[PathKey],
		Scheme:   e.Text[SchemeKey],
	}, true
}
