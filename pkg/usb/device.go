package usb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Known hardware wallet USB identifiers.
const (
	VendorT1            uint16 = 0x534c
	ProductT1Firmware   uint16 = 0x0001
	VendorT2            uint16 = 0x1209
	ProductT2Bootloader uint16 = 0x53c0
	ProductT2Firmware   uint16 = 0x53c1
)

// USBClassHID is the HID interface class code.
const USBClassHID = 0x03

// ErrInvalidID is returned by ParseID for malformed identifiers.
var ErrInvalidID = errors.New("invalid usb id")

// DeviceType classifies a recognized wallet.
type DeviceType uint8

const (
	TypeUnknown DeviceType = iota
	TypeT1HID
	TypeT1WebUSB
	TypeT2
	TypeT2Boot
)

// String returns the device type name.
func (t DeviceType) String() string {
	switch t {
	case TypeT1HID:
		return "T1_HID"
	case TypeT1WebUSB:
		return "T1_WEBUSB"
	case TypeT2:
		return "T2"
	case TypeT2Boot:
		return "T2_BOOT"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the type by name.
func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Device is one attached USB device.
type Device struct {
	Path    string     `cbor:"1,keyasint" json:"path"`
	Vendor  uint16     `cbor:"2,keyasint" json:"vendor"`
	Product uint16     `cbor:"3,keyasint" json:"product"`
	Type    DeviceType `cbor:"4,keyasint" json:"type"`
	Bus     uint8      `cbor:"5,keyasint" json:"bus"`
	Address uint8      `cbor:"6,keyasint" json:"address"`
	Serial  string     `cbor:"7,keyasint,omitempty" json:"serial,omitempty"`
}

// ID is a vendor/product pair.
type ID struct {
	Vendor  uint16
	Product uint16
}

// String formats the ID as "vvvv:pppp".
func (id ID) String() string {
	return fmt.Sprintf("%04x:%04x", id.Vendor, id.Product)
}

// ParseID parses "vvvv:pppp" (hexadecimal, optional 0x prefixes).
func ParseID(s string) (ID, error) {
	v, p, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	vendor, err := strconv.ParseUint(strings.TrimPrefix(v, "0x"), 16, 16)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	product, err := strconv.ParseUint(strings.TrimPrefix(p, "0x"), 16, 16)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	return ID{Vendor: uint16(vendor), Product: uint16(product)}, nil
}

// KnownIDs returns the identifiers of supported wallets.
func KnownIDs() []ID {
	return []ID{
		{VendorT1, ProductT1Firmware},
		{VendorT2, ProductT2Bootloader},
		{VendorT2, ProductT2Firmware},
	}
}

// classify derives the device type from its identifiers and interfaces.
func classify(vendor, product uint16, hasHID bool) DeviceType {
	switch {
	case vendor == VendorT1 && product == ProductT1Firmware:
		if hasHID {
			return TypeT1HID
		}
		return TypeT1WebUSB
	case vendor == VendorT2 && product == ProductT2Firmware:
		return TypeT2
	case vendor == VendorT2 && product == ProductT2Bootloader:
		return TypeT2Boot
	default:
		return TypeUnknown
	}
}
