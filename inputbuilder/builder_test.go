package inputbuilder_test

import (
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/garyrob/pyr0/inputbuilder"
)

// Invariant 8: InputBuilder concatenation.
func TestWriteU32ConcatenatesLittleEndian(t *testing.T) {
	c := qt.New(t)

	b := inputbuilder.New()
	b.WriteU32(3).WriteU32(4)

	var want []byte
	want = binary.LittleEndian.AppendUint32(want, 3)
	want = binary.LittleEndian.AppendUint32(want, 4)

	c.Assert(b.Build(), qt.DeepEquals, want)
}

func TestWriteBytes32RejectsWrongLength(t *testing.T) {
	c := qt.New(t)

	b := inputbuilder.New()
	_, err := b.WriteBytes32(make([]byte, 31))
	c.Assert(err, qt.ErrorIs, inputbuilder.ErrInvalidLength)
}

// Invariant 9: frame parseability.
func TestWriteFrameRoundTrips(t *testing.T) {
	c := qt.New(t)

	payload := []byte("some variable length payload")
	b := inputbuilder.New()
	b.WriteFrame(payload)

	data := b.Build()
	c.Assert(len(data) >= 8, qt.IsTrue)

	length := binary.LittleEndian.Uint64(data[:8])
	c.Assert(length, qt.Equals, uint64(len(payload)))
	c.Assert(data[8:8+length], qt.DeepEquals, payload)
	c.Assert(len(data), qt.Equals, 8+len(payload))
}

func TestWriteStringAndVecBytesAreWireIdenticalToFrame(t *testing.T) {
	c := qt.New(t)

	s := "guest message"
	strBuilder := inputbuilder.New()
	strBuilder.WriteString(s)

	vecBuilder := inputbuilder.New()
	vecBuilder.WriteVecBytes([]byte(s))

	frameBuilder := inputbuilder.New()
	frameBuilder.WriteFrame([]byte(s))

	c.Assert(strBuilder.Build(), qt.DeepEquals, frameBuilder.Build())
	c.Assert(vecBuilder.Build(), qt.DeepEquals, frameBuilder.Build())
}

func TestWriteCBORHasNoFraming(t *testing.T) {
	c := qt.New(t)

	cbor := []byte{0xa1, 0x01, 0x02}
	b := inputbuilder.New()
	b.WriteCBOR(cbor)

	c.Assert(b.Build(), qt.DeepEquals, cbor)
}

func TestClear(t *testing.T) {
	c := qt.New(t)

	b := inputbuilder.New()
	b.WriteU32(1)
	c.Assert(b.Size(), qt.Equals, 4)
	b.Clear()
	c.Assert(b.Size(), qt.Equals, 0)
	c.Assert(b.Build(), qt.DeepEquals, []byte{})
}
