package entity

// HostStatus describes accelerator availability. Only Available is set when
// no accelerator is present.
type HostStatus struct {
	Available     bool   `json:"available"`
	DeviceCount   int    `json:"device_count,omitempty"`
	CurrentDevice string `json:"current_device,omitempty"`
	DeviceName    string `json:"device_name,omitempty"`
}
