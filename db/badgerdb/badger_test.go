package badgerdb

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/flightsurety/suretynode/db"
)

func TestWriteTx(t *testing.T) {
	d, err := New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	defer d.Close()

	tx := d.WriteTx()
	qt.Assert(t, tx.Set([]byte("a/one"), []byte("1")), qt.IsNil)
	qt.Assert(t, tx.Set([]byte("a/two"), []byte("2")), qt.IsNil)
	qt.Assert(t, tx.Set([]byte("b/one"), []byte("3")), qt.IsNil)

	// uncommitted writes must not be visible outside the tx
	_, err = d.Get([]byte("a/one"))
	qt.Assert(t, err, qt.Equals, db.ErrKeyNotFound)

	qt.Assert(t, tx.Commit(), qt.IsNil)

	v, err := d.Get([]byte("a/one"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(v), qt.Equals, "1")

	// discarded writes are dropped
	tx2 := d.WriteTx()
	qt.Assert(t, tx2.Set([]byte("a/one"), []byte("9")), qt.IsNil)
	tx2.Discard()
	v, err = d.Get([]byte("a/one"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(v), qt.Equals, "1")
}

func TestIteratePrefix(t *testing.T) {
	d, err := New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	defer d.Close()

	tx := d.WriteTx()
	for _, k := range []string{"p/1", "p/2", "p/3", "q/1"} {
		qt.Assert(t, tx.Set([]byte(k), []byte("v")), qt.IsNil)
	}
	qt.Assert(t, tx.Commit(), qt.IsNil)

	var keys []string
	err = d.Iterate([]byte("p/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, keys, qt.DeepEquals, []string{"p/1", "p/2", "p/3"})
}
