package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// snapshotArity is the wire arity of the top-level frame array.
const snapshotArity = 3

// Decode parses one MessagePack-encoded Snapshot.
//
// The whole buffer must be exactly one snapshot. On failure the returned
// error is a *DecodeError describing the first mismatch. The result holds
// no reference to buf.
func Decode(buf []byte) (Snapshot, error) {
	r := bytes.NewReader(buf)
	d := &decoder{r: r, dec: msgpack.NewDecoder(r)}

	s, err := d.snapshot()
	if err != nil {
		return Snapshot{}, err
	}
	if r.Len() > 0 {
		return Snapshot{}, &DecodeError{
			Path: "snapshot",
			Err:  fmt.Errorf("%w: %d bytes after end of frame", ErrTrailingData, r.Len()),
		}
	}
	return s, nil
}

// decoder reads positional values from a MessagePack stream.
// The reader is kept alongside the msgpack decoder so that untrusted
// lengths can be checked against the bytes actually remaining.
type decoder struct {
	r   *bytes.Reader
	dec *msgpack.Decoder
}

func (d *decoder) snapshot() (Snapshot, error) {
	if _, err := d.arrayLen("snapshot", snapshotArity); err != nil {
		return Snapshot{}, err
	}

	frame, err := d.uint("frame_number")
	if err != nil {
		return Snapshot{}, err
	}
	ms, err := d.uint("time")
	if err != nil {
		return Snapshot{}, err
	}

	nLayers, err := d.arrayLen("layers", -1)
	if err != nil {
		return Snapshot{}, err
	}

	layers := make(Layers, 0, nLayers)
	for i := 0; i < nLayers; i++ {
		layer, err := d.layer(i)
		if err != nil {
			return Snapshot{}, err
		}
		layers = append(layers, layer)
	}

	return Snapshot{FrameNumber: frame, Time: ms, Layers: layers}, nil
}

func (d *decoder) layer(i int) (Layer, error) {
	n, err := d.arrayLen(fmt.Sprintf("layers[%d]", i), -1)
	if err != nil {
		return nil, err
	}

	layer := make(Layer, 0, n)
	for j := 0; j < n; j++ {
		arc, err := d.arc(i, j)
		if err != nil {
			return nil, err
		}
		layer = append(layer, arc)
	}
	return layer, nil
}

func (d *decoder) arc(i, j int) (ArcSegment, error) {
	path := func() string { return fmt.Sprintf("layers[%d][%d]", i, j) }

	if _, err := d.arrayLenLazy(path, arcFieldCount); err != nil {
		return ArcSegment{}, err
	}

	var f [arcFieldCount]float64
	for k := range f {
		v, err := d.number()
		if err != nil {
			return ArcSegment{}, &DecodeError{Path: path() + "." + arcFieldNames[k], Err: err}
		}
		f[k] = v
	}
	return arcFromFields(f), nil
}

// arrayLen reads an array header at path. want < 0 accepts any length.
func (d *decoder) arrayLen(path string, want int) (int, error) {
	return d.arrayLenLazy(func() string { return path }, want)
}

func (d *decoder) arrayLenLazy(path func() string, want int) (int, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return 0, &DecodeError{Path: path(), Err: classify(err)}
	}
	if !isArray(c) {
		return 0, &DecodeError{Path: path(), Err: fmt.Errorf("%w: expected array, found code 0x%02x", ErrType, c)}
	}

	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return 0, &DecodeError{Path: path(), Err: classify(err)}
	}
	if want >= 0 && n != want {
		return 0, &DecodeError{Path: path(), Err: fmt.Errorf("%w: got %d elements, want %d", ErrArity, n, want)}
	}
	// Every element takes at least one byte.
	if n > d.r.Len() {
		return 0, &DecodeError{
			Path: path(),
			Err:  fmt.Errorf("%w: %d elements declared, %d bytes left", ErrTruncated, n, d.r.Len()),
		}
	}
	return n, nil
}

// uint reads a non-negative integer.
func (d *decoder) uint(path string) (uint64, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return 0, &DecodeError{Path: path, Err: classify(err)}
	}

	switch {
	case isUnsigned(c):
		v, err := d.dec.DecodeUint64()
		if err != nil {
			return 0, &DecodeError{Path: path, Err: classify(err)}
		}
		return v, nil
	case isSigned(c):
		v, err := d.dec.DecodeInt64()
		if err != nil {
			return 0, &DecodeError{Path: path, Err: classify(err)}
		}
		if v < 0 {
			return 0, &DecodeError{Path: path, Err: fmt.Errorf("%w: negative value %d", ErrType, v)}
		}
		return uint64(v), nil
	default:
		return 0, &DecodeError{Path: path, Err: fmt.Errorf("%w: expected unsigned integer, found code 0x%02x", ErrType, c)}
	}
}

// number reads any numeric value widened to float64.
// Errors are returned unwrapped so the caller can attach the field path.
func (d *decoder) number() (float64, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return 0, classify(err)
	}

	switch {
	case c == msgpcode.Float || c == msgpcode.Double:
		v, err := d.dec.DecodeFloat64()
		if err != nil {
			return 0, classify(err)
		}
		return v, nil
	case isUnsigned(c):
		v, err := d.dec.DecodeUint64()
		if err != nil {
			return 0, classify(err)
		}
		return float64(v), nil
	case isSigned(c):
		v, err := d.dec.DecodeInt64()
		if err != nil {
			return 0, classify(err)
		}
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: expected number, found code 0x%02x", ErrType, c)
	}
}

// classify maps a msgpack read error onto the decode taxonomy.
func classify(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return fmt.Errorf("%w: %w", ErrType, err)
}

func isArray(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}

func isUnsigned(c byte) bool {
	return msgpcode.IsFixedNum(c) && c <= msgpcode.PosFixedNumHigh ||
		c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64
}

func isSigned(c byte) bool {
	return msgpcode.IsFixedNum(c) && c >= msgpcode.NegFixedNumLow ||
		c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64
}

// Encode serialises a Snapshot in the positional wire format.
// Arc fields are written as float64 so that every finite value survives
// a round trip unchanged.
func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	if err := encodeSnapshot(enc, s); err != nil {
		return nil, fmt.Errorf("snapshot: encoding frame %d: %w", s.FrameNumber, err)
	}
	return buf.Bytes(), nil
}

func encodeSnapshot(enc *msgpack.Encoder, s Snapshot) error {
	if err := enc.EncodeArrayLen(snapshotArity); err != nil {
		return err
	}
	if err := enc.EncodeUint(s.FrameNumber); err != nil {
		return err
	}
	if err := enc.EncodeUint(s.Time); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(s.Layers)); err != nil {
		return err
	}
	for _, layer := range s.Layers {
		if err := enc.EncodeArrayLen(len(layer)); err != nil {
			return err
		}
		for _, arc := range layer {
			if err := enc.EncodeArrayLen(arcFieldCount); err != nil {
				return err
			}
			for _, v := range arc.fields() {
				if err := enc.EncodeFloat64(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
