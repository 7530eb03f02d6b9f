package boundary

import (
	"fmt"
	"sync"

	"crimewatch/dashboard-go/internal/mapview"
)

type Interaction string

const (
	InteractionHover Interaction = "hover"
	InteractionLeave Interaction = "leave"
	InteractionClick Interaction = "click"
)

func ParseInteraction(s string) (Interaction, error) {
	switch Interaction(s) {
	case InteractionHover, InteractionLeave, InteractionClick:
		return Interaction(s), nil
	default:
		return "", fmt.Errorf("unknown boundary interaction %q", s)
	}
}

// Activation is delivered to subscribers when a rendered boundary is touched.
type Activation struct {
	Kind   Interaction    `json:"kind"`
	Name   string         `json:"name"`
	Bounds mapview.Bounds `json:"bounds"`
}

type Listener func(Activation)

// Interactions dispatches boundary activations for one dashboard session over a
// shared, read-only Registry. Listeners run synchronously, in subscription order.
type Interactions struct {
	reg *Registry

	mu          sync.Mutex
	listeners   []Listener
	highlighted map[string]bool
}

func NewInteractions(reg *Registry) *Interactions {
	return &Interactions{reg: reg, highlighted: make(map[string]bool)}
}

func (i *Interactions) Registry() *Registry { return i.reg }

func (i *Interactions) Subscribe(fn Listener) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = append(i.listeners, fn)
}

// Activate fires kind on the named boundary. Unknown names return ErrNotFound
// and notify nobody.
func (i *Interactions) Activate(kind Interaction, name string) error {
	b, err := i.reg.Lookup(name)
	if err != nil {
		return err
	}

	i.mu.Lock()
	switch kind {
	case InteractionHover:
		i.highlighted[name] = true
	case InteractionLeave:
		delete(i.highlighted, name)
	}
	listeners := append([]Listener(nil), i.listeners...)
	i.mu.Unlock()

	ev := Activation{Kind: kind, Name: name, Bounds: b.Bounds}
	for _, fn := range listeners {
		fn(ev)
	}
	return nil
}

// Highlighted returns the boundaries currently under the pointer.
func (i *Interactions) Highlighted() map[string]bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make(map[string]bool, len(i.highlighted))
	for k, v := range i.highlighted {
		out[k] = v
	}
	return out
}
