// Package interrupt turns an external interrupt signal into a cooperative abort of the
// running script.
//
// The first SIGINT while armed cancels the context handed to the script runtime and
// restores the default disposition, so a second SIGINT terminates the process. A
// second SIGINT queued before the reset took effect is raised again once the default
// disposition is back.
package interrupt

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// ErrNotIdle is returned by Arm when the controller was already armed once.
var ErrNotIdle = errors.New("interrupt controller is not idle")

// State is the lifecycle position of a Controller.
type State int32

const (
	Idle State = iota
	Armed
	Disarmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Disarmed:
		return "disarmed"
	default:
		return "unknown"
	}
}

// Controller arms an interrupt handler around a single script execution.
type Controller struct {
	mu     sync.Mutex
	state  State
	sigCh  chan os.Signal
	done   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	interrupted atomic.Bool

	signals []os.Signal
	notify  func(c chan<- os.Signal, sig ...os.Signal)
	stop    func(c chan<- os.Signal)
	reset   func(sig ...os.Signal)
	raise   func(sig os.Signal)
}

// New creates an idle controller listening for os.Interrupt.
func New() *Controller {
	c := &Controller{
		signals: []os.Signal{os.Interrupt},
		notify:  signal.Notify,
		stop:    signal.Stop,
		reset:   signal.Reset,
		raise:   raise,
	}
	return c
}

// Arm installs the interrupt handler and returns a context that is cancelled
// on the first interrupt request.
func (c *Controller) Arm(parent context.Context) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return nil, ErrNotIdle
	}

	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.sigCh = make(chan os.Signal, 2)
	c.notify(c.sigCh, c.signals...)
	c.state = Armed

	c.wg.Add(1)
	go c.watch(c.sigCh, c.done)

	return ctx, nil
}

func (c *Controller) watch(sigCh <-chan os.Signal, done <-chan struct{}) {
	defer c.wg.Done()
	select {
	case <-sigCh:
		c.Interrupt()
	case <-done:
		return
	}

	select {
	case sig := <-sigCh:
		c.raise(sig)
	case <-done:
	}
}

// raise re-delivers sig to the current process.
func raise(sig os.Signal) {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = p.Signal(sig)
}

// Interrupt requests a cooperative abort, exactly as a delivered signal would.
// It has no effect unless the controller is armed.
func (c *Controller) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Armed {
		return
	}

	// A repeated signal now takes the default action and terminates the process.
	c.reset(c.signals...)
	c.interrupted.Store(true)
	c.cancel()
}

// Disarm removes the handler and restores the default disposition.
// It is safe to call more than once.
func (c *Controller) Disarm() {
	c.mu.Lock()
	if c.state != Armed {
		c.mu.Unlock()
		return
	}
	c.state = Disarmed
	close(c.done)
	c.stop(c.sigCh)
	c.reset(c.signals...)
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

// Interrupted reports whether an interrupt request was serviced while armed.
func (c *Controller) Interrupted() bool {
	return c.interrupted.Load()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
