package ctxmgr

import (
	"sync"

	"github.com/timandy/routine"
)

// bucketCount matches the teacher's pkg/trace/context goroutine-id bucketing
// (contextBuckets{buckets [128]*contextBucket}); 128 spreads lock contention
// across concurrent goroutines touching unrelated stacks.
const bucketCount = 128

// node is one entry in a goroutine's nested stack for a single manager: the
// value it carries, a back-reference to the node that was head before this
// one was pushed, and whether it has been closed. An interior node (closed
// but not yet unwound because a child is still open) is a tombstone: its
// parent pointer stays live so that when the real head eventually closes,
// the unwind skips over it.
type node struct {
	value  any
	parent *node
	closed bool
}

type bucket struct {
	mu   sync.Mutex
	head map[int64]*node
}

// Stack is the generic goroutine-keyed nested stack the majority of context
// managers reuse, generalized from the teacher's pkg/trace/context/context.go
// goroutine-id-bucketed map built on github.com/timandy/routine. Each Stack
// instance belongs to exactly one Manager; Name identifies it for logging.
type Stack struct {
	Name    string
	buckets [bucketCount]*bucket
}

// NewStack returns an empty Stack for a manager named name.
func NewStack(name string) *Stack {
	s := &Stack{Name: name}
	for i := range s.buckets {
		s.buckets[i] = &bucket{head: make(map[int64]*node)}
	}
	return s
}

func (s *Stack) bucketFor(goid int64) *bucket {
	idx := goid % bucketCount
	if idx < 0 {
		idx += bucketCount
	}
	return s.buckets[idx]
}

// Push allocates a node carrying value, makes it the active node for this
// manager on the calling goroutine, and returns a Handle whose Close
// performs the tombstone-aware unwind described on close below. fire is called
// with (value, previousValue, hadPrevious) after the node is linked in,
// outside any internal lock — typically wired to the observer bus's
// onActivate.
func (s *Stack) Push(value any, fire func(newValue, prevValue any, hadPrev bool)) Handle {
	goid := routine.Goid()
	b := s.bucketFor(goid)

	b.mu.Lock()
	prev := b.head[goid]
	n := &node{value: value, parent: prev}
	b.head[goid] = n
	b.mu.Unlock()

	if fire != nil {
		if prev != nil {
			fire(value, prev.value, true)
		} else {
			fire(value, nil, false)
		}
	}

	return &stackHandle{stack: s, goid: goid, node: n}
}

// Active returns the currently active handle for this manager on the
// calling goroutine, or ok==false if none is active. Side-effect-free.
func (s *Stack) Active() (Handle, bool) {
	goid := routine.Goid()
	b := s.bucketFor(goid)

	b.mu.Lock()
	n := b.head[goid]
	b.mu.Unlock()

	if n == nil {
		return nil, false
	}
	return &stackHandle{stack: s, goid: goid, node: n}, true
}

// Clear unconditionally closes every node in the calling goroutine's chain
// and resets its head to nil, per §4.6's clearActiveContexts. fire is called
// with the node's value once per node that was still open when reachable
// from the (pre-clear) head, in top-to-bottom order; already-closed
// (tombstoned) nodes are skipped.
func (s *Stack) Clear(fire func(closedValue any)) {
	goid := routine.Goid()
	b := s.bucketFor(goid)

	b.mu.Lock()
	head := b.head[goid]
	delete(b.head, goid)
	b.mu.Unlock()

	for n := head; n != nil; n = n.parent {
		if n.closed {
			continue
		}
		n.closed = true
		if fire != nil {
			fire(n.value)
		}
	}
}

// close implements the tombstone unwind algorithm of §4.4: closing an
// interior node (not the current head) merely marks it; closing the head
// walks upward through the parent chain popping already-closed nodes,
// settling on the first non-closed ancestor. fire reports the resulting
// active value only when the head actually changed.
func (s *Stack) close(goid int64, n *node, fire func(closedValue, newActiveValue any, changed bool)) error {
	b := s.bucketFor(goid)

	b.mu.Lock()
	if n.closed {
		b.mu.Unlock()
		return nil
	}
	n.closed = true

	head, isHead := b.head[goid], false
	if head == n {
		isHead = true
		cur := n.parent
		for cur != nil && cur.closed {
			cur = cur.parent
		}
		b.head[goid] = cur
		head = cur
	}
	b.mu.Unlock()

	if isHead && fire != nil {
		var newActive any
		if head != nil {
			newActive = head.value
		}
		fire(n.value, newActive, true)
	}
	return nil
}

// stackHandle is the Handle implementation returned by Push/Active.
type stackHandle struct {
	mu    sync.Mutex
	stack *Stack
	goid  int64
	node  *node
}

func (h *stackHandle) Value() any { return h.node.value }

func (h *stackHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.node.closed
}

func (h *stackHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack.close(h.goid, h.node, nil)
}

// CloseNotify behaves like Close but additionally invokes fire with the
// closed value, the new active value, and changed==true, only when the close
// changed the head; closing an interior node does not call fire — wired by managers to the observer bus's onDeactivate per §4.4
// step 5 ("fire onDeactivate only when step 3 actually changed the head").
func (h *stackHandle) CloseNotify(fire func(closedValue, newActiveValue any, changed bool)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stack.close(h.goid, h.node, fire)
}
