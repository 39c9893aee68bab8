package control

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRegisterSetGetRoundTrip(t *testing.T) {
	c := qt.New(t)
	tbl := NewTable()
	var level int
	tbl.Register(BlackLevel, &level)

	c.Assert(tbl.Registered(BlackLevel), qt.IsTrue)
	c.Assert(tbl.Set(BlackLevel, 42), qt.IsNil)
	c.Assert(level, qt.Equals, 42)

	got, err := tbl.Get(BlackLevel)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, 42)
}

func TestSetArrayRoundTrip(t *testing.T) {
	c := qt.New(t)
	tbl := NewTable()
	m := make([]int32, 9)
	tbl.RegisterArray(ColorMatrix, m)

	c.Assert(tbl.SetArray(ColorMatrix, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9}), qt.IsNil)
	c.Assert(m, qt.DeepEquals, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestSetArrayRejectsLengthMismatch(t *testing.T) {
	c := qt.New(t)
	tbl := NewTable()
	m := make([]int32, 9)
	tbl.RegisterArray(ColorMatrix, m)
	c.Assert(tbl.SetArray(ColorMatrix, []int32{1, 2, 3}), qt.ErrorIs, ErrInvalid)
}

func TestUnregisteredSlotReturnsErrInvalid(t *testing.T) {
	c := qt.New(t)
	tbl := NewTable()
	c.Assert(tbl.Registered(Gamma), qt.IsFalse)
	_, err := tbl.Get(Gamma)
	c.Assert(err, qt.ErrorIs, ErrInvalid)
	c.Assert(tbl.Set(Gamma, 1), qt.ErrorIs, ErrInvalid)
}

func TestGetRejectsArrayOnlySlot(t *testing.T) {
	c := qt.New(t)
	tbl := NewTable()
	tbl.RegisterArray(ColorMatrix, make([]int32, 9))
	_, err := tbl.Get(ColorMatrix)
	c.Assert(err, qt.ErrorIs, ErrInvalid)
}
