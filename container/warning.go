package container

// Warning is the "one-time warning side-channel available to callers but not
// required for correctness" of §7 — e.g. trailing data beyond the declared
// last track. It is a plain value, not a logging call, since the core scopes
// logging plumbing out entirely (§1).
type Warning struct {
	Where   string
	Message string
}

func (w Warning) String() string {
	if w.Where == "" {
		return w.Message
	}
	return w.Where + ": " + w.Message
}
