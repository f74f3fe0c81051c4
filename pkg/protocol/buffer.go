package protocol

// Buffer is an engine-owned byte buffer returned across the boundary.
// The caller must copy the contents it needs and then call Release exactly
// once, on every exit path, before the bytes become invalid.
//
// A nil *Buffer stands for an output slot the engine left empty (the C
// convention's NULL string); Bytes and Release are safe on it.
type Buffer struct {
	data      []byte
	released  bool
	onRelease func()
}

// NewBuffer wraps b in an engine-owned buffer.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// NewTrackedBuffer wraps b and registers a hook invoked on the first
// Release. Engines use the hook for outstanding-allocation accounting.
func NewTrackedBuffer(b []byte, onRelease func()) *Buffer {
	return &Buffer{data: b, onRelease: onRelease}
}

// Bytes returns the buffer contents, or nil after release.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.released {
		return nil
	}
	return b.data
}

// Release returns ownership of the buffer to the engine. Further calls
// are no-ops; further Bytes calls return nil.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.data = nil
	if b.onRelease != nil {
		b.onRelease()
	}
}

// Released reports whether Release has been called.
func (b *Buffer) Released() bool {
	return b == nil || b.released
}
