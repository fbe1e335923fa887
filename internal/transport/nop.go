package transport

// Nop is a Transport that discards every event. Useful as a test double
// and as the transport backing a disabled/misconfigured client, so callers
// never need a nil check.
type Nop struct{}

func (Nop) Send(any)  {}
func (Nop) Shutdown() {}
