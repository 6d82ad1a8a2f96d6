package usb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultSysfsRoot is where the kernel exports USB devices.
const DefaultSysfsRoot = "/sys/bus/usb/devices"

// SysfsConfig configures a SysfsEnumerator.
type SysfsConfig struct {
	// Root is the sysfs devices directory. Defaults to DefaultSysfsRoot.
	Root string

	// IDs restricts results to these vendor/product pairs.
	// Empty means KnownIDs().
	IDs []ID

	// MatchAll disables ID filtering.
	MatchAll bool

	// Logger receives debug output for skipped entries. Nil uses slog.Default().
	Logger *slog.Logger
}

// SysfsEnumerator lists wallets by scanning sysfs.
type SysfsEnumerator struct {
	root     string
	ids      map[ID]struct{}
	matchAll bool
	logger   *slog.Logger
}

// NewSysfsEnumerator creates an enumerator from cfg.
func NewSysfsEnumerator(cfg SysfsConfig) *SysfsEnumerator {
	if cfg.Root == "" {
		cfg.Root = DefaultSysfsRoot
	}
	if len(cfg.IDs) == 0 {
		cfg.IDs = KnownIDs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ids := make(map[ID]struct{}, len(cfg.IDs))
	for _, id := range cfg.IDs {
		ids[id] = struct{}{}
	}
	return &SysfsEnumerator{
		root:     cfg.Root,
		ids:      ids,
		matchAll: cfg.MatchAll,
		logger:   cfg.Logger.With("component", "usb"),
	}
}

// Enumerate returns matching devices ordered by sysfs path.
func (e *SysfsEnumerator) Enumerate(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(e.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.root, err)
	}

	devices := []Device{}
	for _, entry := range entries {
		name := entry.Name()

		// Root hubs are "usbN"; interfaces are "1-1:1.0".
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}

		dev, hasHID, err := e.parseDevice(name)
		if err != nil {
			e.logger.Debug("skipping device", "name", name, "error", err)
			continue
		}

		if !e.matchAll {
			if _, ok := e.ids[ID{dev.Vendor, dev.Product}]; !ok {
				continue
			}
		}
		dev.Type = classify(dev.Vendor, dev.Product, hasHID)
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

func (e *SysfsEnumerator) parseDevice(name string) (Device, bool, error) {
	dir := filepath.Join(e.root, name)
	dev := Device{Path: name}

	bus, err := readUint(filepath.Join(dir, "busnum"), 10, 8)
	if err != nil {
		return dev, false, err
	}
	addr, err := readUint(filepath.Join(dir, "devnum"), 10, 8)
	if err != nil {
		return dev, false, err
	}
	vendor, err := readUint(filepath.Join(dir, "idVendor"), 16, 16)
	if err != nil {
		return dev, false, err
	}
	product, err := readUint(filepath.Join(dir, "idProduct"), 16, 16)
	if err != nil {
		return dev, false, err
	}

	dev.Bus = uint8(bus)
	dev.Address = uint8(addr)
	dev.Vendor = uint16(vendor)
	dev.Product = uint16(product)

	if serial, err := readString(filepath.Join(dir, "serial")); err == nil {
		dev.Serial = serial
	}

	return dev, hasHIDInterface(dir, name), nil
}

// hasHIDInterface reports whether any "<name>:<cfg>.<iface>" child is HID class.
func hasHIDInterface(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), name+":") {
			continue
		}
		class, err := readUint(filepath.Join(dir, entry.Name(), "bInterfaceClass"), 16, 8)
		if err == nil && class == USBClassHID {
			return true
		}
	}
	return false
}

func readString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readUint(path string, base, bitSize int) (uint64, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	if base == 16 {
		s = strings.TrimPrefix(s, "0x")
	}
	return strconv.ParseUint(s, base, bitSize)
}
