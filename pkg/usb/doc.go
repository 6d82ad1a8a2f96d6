// Package usb enumerates attached hardware wallets on Linux hosts by reading
// the USB device tree exported under /sys/bus/usb/devices.
//
// SysfsEnumerator satisfies watch.Enumerator[Device], so it can be handed
// directly to a watcher:
//
//	enum := usb.NewSysfsEnumerator(usb.SysfsConfig{})
//	res, err := watch.Listen[usb.Device](ctx, enum, watch.DefaultConfig())
package usb
