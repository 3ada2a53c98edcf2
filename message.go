package capnp

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultDepthLimit uint = 64
	maxDepth               = ^uint(0)
)

// A Message is a collection of segments sharing an id-space, plus the
// factory callbacks realized here as the Arena interface. Deep-copy
// tracking is not stored on the Message; each top-level copy keeps its
// own. A Message is not safe for
// concurrent use: a single goroutine owns it for the duration of any
// write.
type Message struct {
	// Arena supplies segment lookup and allocation.
	Arena Arena

	// DepthLimit bounds pointer-graph recursion (struct/list nesting) for
	// reads that start at the root. Zero means defaultDepthLimit. Deep-copy
	// traversal does not consult it; it is bounded by maxCopyDepth.
	DepthLimit uint

	// Logger receives non-fatal diagnostics: far/double-far pointer
	// promotion (segment.go's writePtr), heap arena segment growth
	// (arena.go's HeapArena.Allocate), and packed-message encode size
	// (stream.go's MarshalPacked). The zero Logger discards everything,
	// so this field is safe to leave unset.
	Logger zerolog.Logger
}

// NewMessage creates a message backed by arena and returns its first
// segment, allocating room for the root pointer.
func NewMessage(arena Arena) (*Message, *Segment, error) {
	msg := &Message{Arena: arena}
	first, _, err := msg.alloc(wordSize, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "new message")
	}
	return msg, first, nil
}

func (m *Message) depthLimit() uint {
	if m.DepthLimit != 0 {
		return m.DepthLimit
	}
	return defaultDepthLimit
}

// NumSegments returns the number of segments attached to the message.
func (m *Message) NumSegments() int64 {
	return m.Arena.NumSegments()
}

// Segment returns the segment with the given ID. It is an error for the
// arena to return a segment belonging to a different message.
func (m *Message) Segment(id SegmentID) (*Segment, error) {
	seg := m.Arena.Segment(id)
	if seg == nil {
		return nil, errors.Errorf("capnp: segment %d: out of bounds", id)
	}
	if seg.msg == nil {
		seg.msg = m
	} else if seg.msg != m {
		return nil, errors.Errorf("capnp: segment %d: owned by a different message", id)
	}
	return seg, nil
}

// Root returns the message's root pointer.
func (m *Message) Root() (Ptr, error) {
	s, err := m.Segment(0)
	if err != nil {
		return Ptr{}, errors.Wrap(err, "read root")
	}
	root, ok := s.root()
	if !ok {
		return Ptr{}, nil
	}
	return root.At(0)
}

// SetRoot sets the message's root object to p.
func (m *Message) SetRoot(p Ptr) error {
	s, err := m.Segment(0)
	if err != nil {
		return errors.Wrap(err, "set root")
	}
	root, ok := s.root()
	if !ok {
		if _, _, err := m.alloc(wordSize, s); err != nil {
			return errors.Wrap(err, "set root: reserve word 0")
		}
		root, ok = s.root()
		if !ok {
			return errors.New("set root: unable to reserve word 0")
		}
	}
	return root.Set(0, p)
}

// alloc allocates sz zero-filled, word-padded bytes via the arena,
// preferring pref if non-nil.
func (m *Message) alloc(sz Size, pref *Segment) (*Segment, Address, error) {
	sz = sz.padToWord()
	seg, addr, err := m.Arena.Allocate(sz, m, pref)
	if err != nil {
		return nil, 0, err
	}
	if seg == nil {
		return nil, 0, errors.New("capnp: arena returned a nil segment")
	}
	if seg.msg != nil && seg.msg != m {
		return nil, 0, errors.New("capnp: arena returned a segment owned by another message")
	}
	seg.msg = m
	return seg, addr, nil
}

// alloc is the package-level entry point Struct/List/copy constructors
// use: it prefers s but may place the object in a different segment of
// the same message if s lacks capacity.
func alloc(s *Segment, sz Size) (*Segment, Address, error) {
	return s.msg.alloc(sz, s)
}

// Arena is the factory/lookup contract a Message delegates segment
// management to. Either role may decline — Segment may always return
// nil and Allocate may always return an error — at the cost of
// supporting neither multi-segment writes nor inter-message copy.
type Arena interface {
	// NumSegments returns the number of segments currently known to the
	// arena.
	NumSegments() int64

	// Segment returns the segment with the given ID, or nil if none is
	// known (the "lookup" callback).
	Segment(id SegmentID) *Segment

	// Allocate returns a segment with at least sz bytes of spare
	// capacity, creating one if necessary (the "create" callback). pref,
	// if non-nil, is the segment the caller would prefer to grow; the
	// arena is free to return a different segment. The returned
	// segment's spare region must be zero-filled.
	Allocate(sz Size, msg *Message, pref *Segment) (seg *Segment, addr Address, err error)

	// Release frees all segments owned by the arena. The arena must not
	// be used afterward.
	Release()
}
