package client

import (
	"sync"
	"yeshivashop_server/structs"
)

// SessionContext is the single place the client's auth state lives. Auth
// listeners feed it through Apply; everything else subscribes.
type SessionContext struct {
	mu          sync.RWMutex
	session     *structs.Session
	subscribers map[int]func(event string, session *structs.Session)
	nextID      int
}

func NewSessionContext() *SessionContext {
	return &SessionContext{subscribers: make(map[int]func(string, *structs.Session))}
}

// Session returns the current session, or nil for a guest.
func (sc *SessionContext) Session() *structs.Session {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.session
}

func (sc *SessionContext) SignedIn() bool {
	return sc.Session() != nil
}

// AccessToken is empty for a guest.
func (sc *SessionContext) AccessToken() string {
	if s := sc.Session(); s != nil {
		return s.AccessToken
	}
	return ""
}

// Apply records an auth state change and notifies subscribers. Events other
// than sign in, refresh and sign out leave the session as it is.
func (sc *SessionContext) Apply(event string, session *structs.Session) {
	sc.mu.Lock()
	switch event {
	case structs.AuthEventSignedIn, structs.AuthEventTokenRefreshed:
		sc.session = session
	case structs.AuthEventSignedOut:
		sc.session = nil
	}
	current := sc.session
	subs := make([]func(string, *structs.Session), 0, len(sc.subscribers))
	for _, fn := range sc.subscribers {
		subs = append(subs, fn)
	}
	sc.mu.Unlock()

	for _, fn := range subs {
		fn(event, current)
	}
}

// Subscribe registers fn for every Apply and returns its unsubscribe func.
func (sc *SessionContext) Subscribe(fn func(event string, session *structs.Session)) func() {
	sc.mu.Lock()
	id := sc.nextID
	sc.nextID++
	sc.subscribers[id] = fn
	sc.mu.Unlock()

	return func() {
		sc.mu.Lock()
		delete(sc.subscribers, id)
		sc.mu.Unlock()
	}
}
