package dictionary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	d, _ := loadTestDictionary(t)

	data, err := d.Snapshot()
	require.NoError(t, err)

	r, err := Restore(data)
	require.NoError(t, err)

	assert.Equal(t, d.ID, r.ID)
	assert.Equal(t, d.Root().Name, r.Root().Name)

	var want, got bytes.Buffer
	require.NoError(t, d.Dump(&want))
	require.NoError(t, r.Dump(&got))
	assert.Equal(t, want.String(), got.String())

	b := mustAttr(t, r, "Foo-TLV-B")
	assert.Equal(t, "26.9.2.2", PrintOID(nil, b))
	assert.NotPanics(t, func() { Verify(b) })

	st := mustAttr(t, r, "Service-Type")
	assert.Equal(t, "Framed-User", r.EnumName(st, 2))
	assert.Equal(t, "Early-Value", r.EnumName(mustAttr(t, r, "Early-Attr"), 7))

	v, ok := r.VendorByName("Wide")
	require.True(t, ok)
	assert.Equal(t, uint8(2), v.TypeSize)
	assert.Len(t, r.Vendors(), len(d.Vendors()))

	again, err := r.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestSnapshotDeterministic(t *testing.T) {
	d, _ := loadTestDictionary(t)

	first, err := d.Snapshot()
	require.NoError(t, err)
	second, err := d.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSnapshotStream(t *testing.T) {
	d := newTestDictionary(t)

	var buf bytes.Buffer
	require.NoError(t, d.WriteSnapshot(&buf))

	r, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	a, ok := r.AttrByNumber(9, 3)
	require.True(t, ok)
	assert.Equal(t, "Foo-Int", a.Name)
}

func TestSnapshotErrors(t *testing.T) {
	t.Run("pending fixups", func(t *testing.T) {
		d := New("RADIUS")
		require.NoError(t, d.ParseLine("VALUE Later Thing 1", nil, 0))

		_, err := d.Snapshot()
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Restore([]byte{0xff, 0x00, 0x13})
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		data, err := encMode.Marshal(&snapshot{Version: SnapshotVersion + 1})
		require.NoError(t, err)

		_, err = Restore(data)
		assert.Error(t, err)
	})
}
