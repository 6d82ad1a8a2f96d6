package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDevice struct {
	Path    string `cbor:"1,keyasint"`
	Vendor  uint16 `cbor:"2,keyasint"`
	Product uint16 `cbor:"3,keyasint"`
}

func TestSnapshotEqual(t *testing.T) {
	a := []testDevice{{Path: "1-1", Vendor: 0x534c, Product: 0x0001}}
	b := []testDevice{{Path: "1-1", Vendor: 0x534c, Product: 0x0001}}
	c := []testDevice{{Path: "1-2", Vendor: 0x534c, Product: 0x0001}}

	tests := []struct {
		name string
		x, y any
		want bool
	}{
		{"identical snapshots", a, b, true},
		{"different path", a, c, false},
		{"empty vs nil slice", []testDevice{}, []testDevice(nil), false},
		{"both nil", []testDevice(nil), []testDevice(nil), true},
		{"order matters", append(a, c...), append(c, a...), false},
		{"map key order ignored", map[string]int{"a": 1, "b": 2}, map[string]int{"b": 2, "a": 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Encode(tt.x)
			require.NoError(t, err)
			y, err := Encode(tt.y)
			require.NoError(t, err)
			assert.Equal(t, tt.want, x.Equal(y))
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	v := map[string]any{"z": 1, "a": []any{"x", uint64(2)}, "m": map[string]bool{"q": true, "b": false}}

	first, err := Encode(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Encode(v)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestEncodeUnencodable(t *testing.T) {
	_, err := Encode(make(chan int))
	assert.Error(t, err)
}

func TestSnapshotFingerprint(t *testing.T) {
	a, err := Encode([]testDevice{{Path: "1-1", Vendor: 1, Product: 2}})
	require.NoError(t, err)
	b, err := Encode([]testDevice{{Path: "1-1", Vendor: 1, Product: 2}})
	require.NoError(t, err)
	c, err := Encode([]testDevice{{Path: "1-3", Vendor: 1, Product: 2}})
	require.NoError(t, err)

	fa := a.Fingerprint()
	assert.Len(t, fa, FingerprintSize*2)
	assert.Regexp(t, "^[0-9a-f]+$", fa)
	assert.Equal(t, fa, b.Fingerprint())
	assert.NotEqual(t, fa, c.Fingerprint())
}
