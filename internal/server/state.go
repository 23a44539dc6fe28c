package server

import (
	"net"
	"sync"
	"time"
)

// ServerState is owned by the run loop: the running flag, the shutdown signal
// and the set of live connections.
type ServerState struct {
	mu       sync.Mutex
	running  bool
	closing  bool
	listener net.Listener
	conns    map[net.Conn]bool // conn -> busy
	wg       sync.WaitGroup
	done     chan struct{}
	once     sync.Once
}

func newState() *ServerState {
	return &ServerState{
		conns: make(map[net.Conn]bool),
		done:  make(chan struct{}),
	}
}

// start records ln as the listener to close on shutdown. When shutdown has
// already happened it closes ln and returns false.
func (st *ServerState) start(ln net.Listener) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closing {
		_ = ln.Close()
		return false
	}
	st.listener = ln
	st.running = true
	return true
}

// track registers a new connection. It returns false once shutdown has begun.
func (st *ServerState) track(c net.Conn) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closing {
		return false
	}
	st.conns[c] = false
	st.wg.Add(1)
	return true
}

func (st *ServerState) untrack(c net.Conn) {
	st.mu.Lock()
	delete(st.conns, c)
	st.mu.Unlock()
	st.wg.Done()
}

// idle marks c as waiting for its next line and arms the read deadline.
// It returns false when the connection should stop instead.
func (st *ServerState) idle(c net.Conn, timeout time.Duration) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closing {
		return false
	}
	st.conns[c] = false
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	_ = c.SetReadDeadline(deadline)
	return true
}

func (st *ServerState) busy(c net.Conn) {
	st.mu.Lock()
	st.conns[c] = true
	st.mu.Unlock()
}

// shutdown stops accepting and wakes idle readers. Busy connections finish
// their current command and stop at their next idle call.
func (st *ServerState) shutdown() {
	st.once.Do(func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.closing = true
		st.running = false
		if st.listener != nil {
			_ = st.listener.Close()
		}
		now := time.Now()
		for c, busy := range st.conns {
			if !busy {
				_ = c.SetReadDeadline(now)
			}
		}
		close(st.done)
	})
}

func (st *ServerState) isClosing() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.closing
}

// Running reports whether the server is accepting connections.
func (st *ServerState) Running() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.running
}

// Connections is the number of live connections.
func (st *ServerState) Connections() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.conns)
}
