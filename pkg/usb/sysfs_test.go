package usb

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletlink/walletlink-go/pkg/watch"
)

type fakeDevice struct {
	name   string
	attrs  map[string]string
	ifaces map[string]string // interface dir -> bInterfaceClass
}

func writeTree(t *testing.T, devs ...fakeDevice) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range devs {
		dir := filepath.Join(root, d.name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for k, v := range d.attrs {
			require.NoError(t, os.WriteFile(filepath.Join(dir, k), []byte(v+"\n"), 0o644))
		}
		for iface, class := range d.ifaces {
			idir := filepath.Join(dir, iface)
			require.NoError(t, os.MkdirAll(idir, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(idir, "bInterfaceClass"), []byte(class+"\n"), 0o644))
		}
	}
	return root
}

func attrs(bus, dev, vendor, product string) map[string]string {
	return map[string]string{"busnum": bus, "devnum": dev, "idVendor": vendor, "idProduct": product}
}

func standardTree(t *testing.T) string {
	t1 := fakeDevice{name: "1-2", attrs: attrs("1", "5", "534c", "0001"), ifaces: map[string]string{"1-2:1.0": "03"}}
	t2 := fakeDevice{name: "1-1.4", attrs: attrs("1", "7", "1209", "53c1")}
	t2.attrs["serial"] = "ABC123"
	boot := fakeDevice{name: "2-1", attrs: attrs("2", "3", "1209", "53c0")}
	mouse := fakeDevice{name: "1-3", attrs: attrs("1", "9", "046d", "c077"), ifaces: map[string]string{"1-3:1.0": "03"}}
	hub := fakeDevice{name: "usb1", attrs: attrs("1", "1", "1d6b", "0002")}
	broken := fakeDevice{name: "3-1", attrs: map[string]string{"busnum": "3"}}
	return writeTree(t, t1, t2, boot, mouse, hub, broken)
}

func TestSysfsEnumerate(t *testing.T) {
	root := standardTree(t)
	e := NewSysfsEnumerator(SysfsConfig{Root: root})

	devs, err := e.Enumerate(context.Background())
	require.NoError(t, err)

	want := []Device{
		{Path: "1-1.4", Vendor: VendorT2, Product: ProductT2Firmware, Type: TypeT2, Bus: 1, Address: 7, Serial: "ABC123"},
		{Path: "1-2", Vendor: VendorT1, Product: ProductT1Firmware, Type: TypeT1HID, Bus: 1, Address: 5},
		{Path: "2-1", Vendor: VendorT2, Product: ProductT2Bootloader, Type: TypeT2Boot, Bus: 2, Address: 3},
	}
	assert.Equal(t, want, devs)
}

func TestSysfsEnumerateFilters(t *testing.T) {
	root := standardTree(t)

	t.Run("Custom", func(t *testing.T) {
		e := NewSysfsEnumerator(SysfsConfig{Root: root, IDs: []ID{{0x046d, 0xc077}}})
		devs, err := e.Enumerate(context.Background())
		require.NoError(t, err)
		require.Len(t, devs, 1)
		assert.Equal(t, "1-3", devs[0].Path)
		assert.Equal(t, TypeUnknown, devs[0].Type)
	})

	t.Run("MatchAll", func(t *testing.T) {
		e := NewSysfsEnumerator(SysfsConfig{Root: root, MatchAll: true})
		devs, err := e.Enumerate(context.Background())
		require.NoError(t, err)
		assert.Len(t, devs, 4)
	})
}

func TestSysfsEnumerateWebUSB(t *testing.T) {
	root := writeTree(t, fakeDevice{name: "1-1", attrs: attrs("1", "2", "534c", "0001"), ifaces: map[string]string{"1-1:1.0": "ff"}})
	devs, err := NewSysfsEnumerator(SysfsConfig{Root: root}).Enumerate(context.Background())
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, TypeT1WebUSB, devs[0].Type)
}

func TestSysfsEnumerateEmpty(t *testing.T) {
	devs, err := NewSysfsEnumerator(SysfsConfig{Root: t.TempDir()}).Enumerate(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devs)
	assert.Empty(t, devs)
}

func TestSysfsEnumerateErrors(t *testing.T) {
	_, err := NewSysfsEnumerator(SysfsConfig{Root: filepath.Join(t.TempDir(), "missing")}).Enumerate(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSysfsEnumerator(SysfsConfig{Root: t.TempDir()}).Enumerate(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSysfsWithWatcher(t *testing.T) {
	root := standardTree(t)
	var enum watch.Enumerator[Device] = NewSysfsEnumerator(SysfsConfig{Root: root})

	res, err := watch.Listen(context.Background(), enum, watch.Config{MaxIterations: 1})
	require.NoError(t, err)
	assert.Equal(t, watch.ReasonExhausted, res.Reason)
	assert.Len(t, res.Devices, 3)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{"534c:0001", ID{VendorT1, ProductT1Firmware}, false},
		{"0x1209:0x53C1", ID{VendorT2, ProductT2Firmware}, false},
		{" 1209:53c0 ", ID{VendorT2, ProductT2Bootloader}, false},
		{"1209", ID{}, true},
		{"zz:0001", ID{}, true},
		{"1209:10000", ID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) ID {
	t.Helper()
	id, err := ParseID(s)
	require.NoError(t, err)
	return id
}

func TestDeviceJSON(t *testing.T) {
	data, err := json.Marshal(Device{Path: "1-1", Vendor: VendorT2, Product: ProductT2Firmware, Type: TypeT2, Bus: 1, Address: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"1-1","vendor":4617,"product":21441,"type":"T2","bus":1,"address":4}`, string(data))
}
