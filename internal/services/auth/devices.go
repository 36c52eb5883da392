package auth

import (
	"time"
)

// Devices hands out one Facade per device, all sharing the backend chosen at startup.
// Each device gets its own Store namespace, so sessions never leak between browsers.
type Devices struct {
	backend Backend
	open    func(deviceID string) Store
	maxAge  time.Duration
}

// NewDevices creates a device registry; open returns the store of a device
func NewDevices(backend Backend, open func(deviceID string) Store, maxAge time.Duration) *Devices {
	return &Devices{
		backend: backend,
		open:    open,
		maxAge:  maxAge,
	}
}

// Facade returns the facade for a device ID
func (d *Devices) Facade(deviceID string) *Facade {
	return NewFacade(d.backend, d.open(deviceID), d.maxAge)
}

// Backend returns the shared backend
func (d *Devices) Backend() Backend {
	return d.backend
}
