package hostport

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDefaultAllocReturnsRequestedSize(t *testing.T) {
	c := qt.New(t)
	d := NewDefault()
	buf := d.Alloc(64, Engine)
	c.Assert(buf, qt.HasLen, 64)
	d.Free(buf, Engine)
}

func TestDefaultInitExposureReportsNoDevice(t *testing.T) {
	c := qt.New(t)
	d := NewDefault()
	def, max, ok := d.InitExposure(nil)
	c.Assert(ok, qt.IsFalse)
	c.Assert(def, qt.Equals, 0)
	c.Assert(max, qt.Equals, 0)
}

func TestDefaultUptimeUSIsNonDecreasing(t *testing.T) {
	c := qt.New(t)
	d := NewDefault()
	a := d.UptimeUS()
	b := d.UptimeUS()
	c.Assert(b >= a, qt.IsTrue)
}
