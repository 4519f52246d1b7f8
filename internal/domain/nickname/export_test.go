package nickname

// Available reports whether deviceID could take nickname right now.
func (r *Registry) Available(deviceID, nickname string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.holder(deviceID, nickname) == ""
}
