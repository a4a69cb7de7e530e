package resource

// Reservation accumulates memory reserved on behalf of one operation so it
// can be released in one call. The zero value is not usable; use Reserve.
type Reservation struct {
	c     *Controller
	bytes int64
}

// Reserve returns an empty reservation against c.
func (c *Controller) Reserve() *Reservation {
	return &Reservation{c: c}
}

// Grow reserves bytes more. On failure nothing is added.
func (r *Reservation) Grow(bytes int64) error {
	if err := r.c.AcquireMemory(bytes); err != nil {
		return err
	}
	if bytes > 0 {
		r.bytes += bytes
	}
	return nil
}

// Shrink releases bytes of the reservation.
func (r *Reservation) Shrink(bytes int64) {
	bytes = min(bytes, r.bytes)
	r.c.ReleaseMemory(bytes)
	r.bytes -= bytes
}

// Bytes returns the reserved size.
func (r *Reservation) Bytes() int64 { return r.bytes }

// Release returns the whole reservation. It is idempotent.
func (r *Reservation) Release() {
	r.c.ReleaseMemory(r.bytes)
	r.bytes = 0
}
