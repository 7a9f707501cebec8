package client

import (
	"context"
	"sync"
)

// Pending holds state that is mutated optimistically: a change is applied
// locally first and rolled back to the snapshot if the remote call fails.
// Mutations run one at a time; reads see the optimistic state.
type Pending[S any] struct {
	opMu  sync.Mutex
	mu    sync.RWMutex
	state S
	gen   uint64
	clone func(S) S
}

func NewPending[S any](initial S, clone func(S) S) *Pending[S] {
	return &Pending[S]{state: initial, clone: clone}
}

// State returns a copy of the current state.
func (p *Pending[S]) State() S {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clone(p.state)
}

// Set replaces the state without a remote call. A Do still waiting on its
// remote call will neither roll back nor confirm over it.
func (p *Pending[S]) Set(s S) {
	p.mu.Lock()
	p.state = s
	p.gen++
	p.mu.Unlock()
}

// Do applies the local change, then runs remote. A non-nil state returned by
// remote becomes authoritative; an error restores the snapshot. If Set ran in
// the meantime its state wins.
func (p *Pending[S]) Do(ctx context.Context, apply func(S) S, remote func(ctx context.Context) (*S, error)) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	snapshot := p.clone(p.state)
	p.state = apply(p.clone(p.state))
	gen := p.gen
	p.mu.Unlock()

	confirmed, err := remote(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return err
	}
	if err != nil {
		p.state = snapshot
		return err
	}
	if confirmed != nil {
		p.state = *confirmed
	}
	return nil
}
