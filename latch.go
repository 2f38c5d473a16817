package halftone

// latch fires a continuation once a fixed number of operations completed.
// The result passed to the continuation is the AND of every completion.
//
// A latch is not safe for concurrent use; completions are delivered on the
// renderer goroutine.
type latch struct {
	pending int
	ok      bool
	fired   bool
	done    func(ok bool)
}

// newLatch returns a latch waiting for n completions. With n <= 0 the
// continuation runs immediately.
func newLatch(n int, done func(ok bool)) *latch {
	l := &latch{pending: n, ok: true, done: done}
	if n <= 0 {
		l.fire()
	}
	return l
}

// Done records one completion.
func (l *latch) Done(ok bool) {
	if l.fired {
		return
	}
	l.ok = l.ok && ok
	l.pending--
	if l.pending == 0 {
		l.fire()
	}
}

func (l *latch) fire() {
	l.fired = true
	if l.done != nil {
		l.done(l.ok)
	}
}
