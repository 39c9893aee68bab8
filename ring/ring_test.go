package ring

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWriteReadRoundTrip(t *testing.T) {
	c := qt.New(t)
	r := New(8)
	buf, err := r.Write(5)
	c.Assert(err, qt.IsNil)
	copy(buf, []byte{1, 2, 3, 4, 5})
	c.Assert(r.Used(), qt.Equals, 5)
	c.Assert(r.Free(), qt.Equals, 3)

	out, err := r.Read(5)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.DeepEquals, []byte{1, 2, 3, 4, 5})
	c.Assert(r.IsEmpty(), qt.IsTrue)
}

func TestWriteFailsWhenFull(t *testing.T) {
	c := qt.New(t)
	r := New(4)
	_, err := r.Write(4)
	c.Assert(err, qt.IsNil)
	c.Assert(r.IsFull(), qt.IsTrue)
	_, err = r.Write(1)
	c.Assert(err, qt.Equals, ErrWouldBlock)
}

func TestReadFailsWhenShort(t *testing.T) {
	c := qt.New(t)
	r := New(4)
	r.Write(2)
	_, err := r.Read(3)
	c.Assert(err, qt.Equals, ErrWouldBlock)
}

func TestPeekIsIdempotentAndDoesNotConsume(t *testing.T) {
	c := qt.New(t)
	r := New(8)
	buf, _ := r.Write(6)
	copy(buf, []byte{1, 2, 3, 4, 5, 6})

	p1, err := r.Peek(2)
	c.Assert(err, qt.IsNil)
	c.Assert(p1, qt.DeepEquals, []byte{1, 2})

	p2, err := r.Peek(2)
	c.Assert(err, qt.IsNil)
	c.Assert(p2, qt.DeepEquals, []byte{3, 4})

	// Used is unaffected by peeking.
	c.Assert(r.Used(), qt.Equals, 6)

	// A failed peek does not move the cursor.
	_, err = r.Peek(100)
	c.Assert(err, qt.Equals, ErrWouldBlock)
	p3, err := r.Peek(2)
	c.Assert(err, qt.IsNil)
	c.Assert(p3, qt.DeepEquals, []byte{5, 6})

	// Read resets peek to tail.
	out, err := r.Read(1)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.DeepEquals, []byte{1})
	r.ResetPeek()
	p4, err := r.Peek(1)
	c.Assert(err, qt.IsNil)
	c.Assert(p4, qt.DeepEquals, []byte{2})
}

func TestUsedFreeInvariant(t *testing.T) {
	c := qt.New(t)
	r := New(16)
	seq := []int{3, 5, 2, -4, 6, -6, 1}
	for _, n := range seq {
		if n > 0 {
			if r.Free() >= n {
				r.Write(n)
			}
		} else {
			n = -n
			if r.Used() >= n {
				r.Read(n)
			}
		}
		c.Assert(r.Used()+r.Free(), qt.Equals, r.Size())
		c.Assert(r.TotalUsed()+r.TotalFree(), qt.Equals, r.Size())
		c.Assert(r.Used() >= 0 && r.Used() <= r.Size(), qt.IsTrue)
	}
}
