// Package registry enumerates MIDI output endpoints once at startup
// and hands out lazy-opening handles to them by name-substring lookup.
package registry

import (
	"errors"
	"strings"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register the platform MIDI driver

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoEndpointsAvailable is returned by New when the host exposes no
// MIDI output ports at all.
var ErrNoEndpointsAvailable = errors.New("registry: no MIDI output endpoints available")

// Endpoint is one MIDI output port on the host, addressed by a stable
// index and a human-readable name. It is exclusively owned by a
// Registry; pins reference it only for the duration of one PlayList
// call.
type Endpoint struct {
	Index int
	Name  string

	mu     sync.Mutex
	port   drivers.Out
	send   func(gomidi.Message) error
	opened bool
	failed bool

	log *zap.Logger
}

// The per-endpoint Note-On stacks, last-value tables, last-clock pin
// and last-song-pointer pin are scoped to one redundancy-and-safety
// pass call, not to the Endpoint itself — they reference *Pin, and Pin
// belongs to the engine package, which already depends on registry.
// That state lives in engine.safetyState instead.

// Registry owns every discovered Endpoint for one PlayList call.
type Registry struct {
	endpoints []*Endpoint
	byIndex   map[int]*Endpoint
	log       *zap.Logger
}

// New enumerates MIDI output endpoints. Unreadable ports are skipped
// silently.
func New(log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ports := gomidi.GetOutPorts()
	r := &Registry{log: log, byIndex: make(map[int]*Endpoint)}
	for i, p := range ports {
		name := safePortName(p)
		if name == "" {
			continue
		}
		ep := newEndpoint(i, name, p, log)
		r.endpoints = append(r.endpoints, ep)
		r.byIndex[i] = ep
	}
	if len(r.endpoints) == 0 {
		return nil, ErrNoEndpointsAvailable
	}
	return r, nil
}

// ByIndex looks up an endpoint by its stable enumeration index — the
// index a Pin carries — which is not necessarily its position in
// Endpoints() once unreadable ports have been skipped.
func (r *Registry) ByIndex(index int) (*Endpoint, bool) {
	ep, ok := r.byIndex[index]
	return ep, ok
}

func safePortName(p drivers.Out) string {
	defer func() { recover() }() // a misbehaving driver must not take enumeration down with it
	return p.String()
}

func newEndpoint(index int, name string, port drivers.Out, log *zap.Logger) *Endpoint {
	return &Endpoint{
		Index: index,
		Name:  name,
		port:  port,
		log:   log,
	}
}

// Endpoints returns every discovered endpoint, in enumeration order.
func (r *Registry) Endpoints() []*Endpoint {
	return r.endpoints
}

// Resolve tries each candidate string in order and returns the first
// registered endpoint whose name contains it as a substring.
func (r *Registry) Resolve(candidates []string) (*Endpoint, bool) {
	for _, c := range candidates {
		for _, ep := range r.endpoints {
			if strings.Contains(ep.Name, c) {
				return ep, true
			}
		}
	}
	return nil, false
}

// Close closes every opened endpoint and aggregates per-endpoint
// errors, rather than returning only the first one.
func (r *Registry) Close() error {
	var err error
	for _, ep := range r.endpoints {
		if closeErr := ep.Close(); closeErr != nil {
			err = multierr.Append(err, closeErr)
		}
	}
	return err
}

// Open idempotently opens the endpoint's transport handle. On first
// success it logs under verbose mode; on failure it sets a sticky
// failed flag so later opens are silent no-ops.
func (e *Endpoint) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened || e.failed {
		return nil
	}
	send, err := gomidi.SendTo(e.port)
	if err != nil {
		e.failed = true
		e.log.Warn("endpoint open failed, excluding from playback", zap.String("endpoint", e.Name), zap.Error(err))
		return err
	}
	e.send = send
	e.opened = true
	e.log.Info("endpoint opened", zap.Int("index", e.Index), zap.String("endpoint", e.Name))
	return nil
}

// Failed reports whether this endpoint is sticky-excluded after a
// prior open failure.
func (e *Endpoint) Failed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failed
}

// Opened reports whether this endpoint has a live transport handle.
func (e *Endpoint) Opened() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

// Send writes a MIDI byte buffer to the endpoint. The caller must have
// opened the endpoint first; Send is a no-op if it is not open.
func (e *Endpoint) Send(b []byte) error {
	e.mu.Lock()
	send := e.send
	opened := e.opened
	e.mu.Unlock()
	if !opened {
		return nil
	}
	return send(gomidi.Message(b))
}

// Close idempotently closes the transport handle.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return nil
	}
	e.opened = false
	e.send = nil
	return e.port.Close()
}
