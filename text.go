package capnp

// Text is a typed view over a byte list holding a NUL-terminated UTF-8
// string. Its underlying List.Len() counts the trailing NUL; String and
// Bytes exclude it.
type Text struct {
	List
}

// Data is a typed view over a byte list holding an opaque byte string.
// Unlike Text, its length excludes any terminator.
type Data struct {
	List
}

// NewText allocates a new Text of the given byte length (not counting
// the NUL this constructor appends), preferring placement in s.
func NewText(s *Segment, length int) (Text, error) {
	l, err := NewList(s, byte1ElementSize, int32(length)+1)
	if err != nil {
		return Text{}, err
	}
	return Text{l}, nil
}

// NewTextFromBytes allocates a Text holding a copy of b.
func NewTextFromBytes(s *Segment, b []byte) (Text, error) {
	t, err := NewText(s, len(b))
	if err != nil {
		return Text{}, err
	}
	for i, c := range b {
		if err := t.List.SetUint8(i, c); err != nil {
			return Text{}, err
		}
	}
	return t, nil
}

// NewTextFromString is a convenience wrapper recasting capn_new_string's
// "sz<0 means strlen(str)" behavior as an explicit separate entry point
// rather than a sentinel length.
func NewTextFromString(s *Segment, str string) (Text, error) {
	return NewTextFromBytes(s, []byte(str))
}

// ToPtr returns t as a generic Ptr.
func (t Text) ToPtr() Ptr {
	return t.List.ToPtr()
}

// Len returns the number of bytes in the string, excluding the
// terminating NUL.
func (t Text) Len() int {
	n := t.List.Len()
	if n == 0 {
		return 0
	}
	return n - 1
}

// Bytes returns a copy of the string's bytes, excluding the NUL.
func (t Text) Bytes() []byte {
	n := t.Len()
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = t.List.Uint8(i)
	}
	return b
}

// String returns the string's contents, excluding the NUL.
func (t Text) String() string {
	return string(t.Bytes())
}

// ToText attempts to view p as Text.
func ToText(p Ptr) Text {
	l := p.List()
	if l.seg == nil || l.elemSize != byte1ElementSize {
		return Text{}
	}
	return Text{l}
}

// NewData allocates a new Data holding a copy of b, preferring placement
// in s.
func NewData(s *Segment, b []byte) (Data, error) {
	l, err := NewList(s, byte1ElementSize, int32(len(b)))
	if err != nil {
		return Data{}, err
	}
	d := Data{l}
	for i, c := range b {
		if err := d.List.SetUint8(i, c); err != nil {
			return Data{}, err
		}
	}
	return d, nil
}

// ToPtr returns d as a generic Ptr.
func (d Data) ToPtr() Ptr {
	return d.List.ToPtr()
}

// Bytes returns a copy of d's contents.
func (d Data) Bytes() []byte {
	n := d.List.Len()
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = d.List.Uint8(i)
	}
	return b
}

// ToData attempts to view p as Data.
func ToData(p Ptr) Data {
	l := p.List()
	if l.seg == nil || l.elemSize != byte1ElementSize {
		return Data{}
	}
	return Data{l}
}
