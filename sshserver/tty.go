package sshserver

import (
	"io"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// sessionTty lets tcell drive an SSH channel as if it were a terminal. The
// channel is already raw on the client side, so Start and Stop only manage
// the reader. Window changes arrive through resize instead of SIGWINCH.
type sessionTty struct {
	rw io.ReadWriter

	mu       sync.Mutex
	size     tcell.WindowSize
	onResize func()
	drain    chan struct{}
	pumping  bool
	pending  []byte

	data chan []byte
	done chan struct{}
	once sync.Once
}

var _ tcell.Tty = (*sessionTty)(nil)

func newSessionTty(rw io.ReadWriter, width, height int) *sessionTty {
	return &sessionTty{
		rw:    rw,
		size:  tcell.WindowSize{Width: width, Height: height},
		drain: make(chan struct{}),
		data:  make(chan []byte),
		done:  make(chan struct{}),
	}
}

func (t *sessionTty) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drain = make(chan struct{})
	if !t.pumping {
		t.pumping = true
		go t.pump()
	}
	return nil
}

// pump moves channel input to Read so a blocked Read can be released by Drain.
func (t *sessionTty) pump() {
	defer close(t.data)
	for {
		buf := make([]byte, 256)
		n, err := t.rw.Read(buf)
		if n > 0 {
			select {
			case t.data <- buf[:n]:
			case <-t.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (t *sessionTty) Stop() error { return nil }

// Drain wakes a pending Read with no data.
func (t *sessionTty) Drain() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.drain:
	default:
		close(t.drain)
	}
	return nil
}

func (t *sessionTty) NotifyResize(cb func()) {
	t.mu.Lock()
	t.onResize = cb
	t.mu.Unlock()
}

func (t *sessionTty) WindowSize() (tcell.WindowSize, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size, nil
}

// resize records a window change from the client and tells the screen.
func (t *sessionTty) resize(width, height int) {
	t.mu.Lock()
	t.size = tcell.WindowSize{Width: width, Height: height}
	cb := t.onResize
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (t *sessionTty) Read(p []byte) (int, error) {
	t.mu.Lock()
	if len(t.pending) > 0 {
		n := copy(p, t.pending)
		t.pending = t.pending[n:]
		t.mu.Unlock()
		return n, nil
	}
	drain := t.drain
	t.mu.Unlock()

	select {
	case chunk, ok := <-t.data:
		if !ok {
			return 0, io.EOF
		}
		n := copy(p, chunk)
		if n < len(chunk) {
			t.mu.Lock()
			t.pending = append(t.pending, chunk[n:]...)
			t.mu.Unlock()
		}
		return n, nil
	case <-drain:
		return 0, nil
	case <-t.done:
		return 0, io.EOF
	}
}

func (t *sessionTty) Write(p []byte) (int, error) {
	return t.rw.Write(p)
}

// Close stops the reader. The SSH channel itself belongs to the session handler.
func (t *sessionTty) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}
