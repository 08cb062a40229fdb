package runner

// Access tags how a kernel invocation touches an argument's dof data.
type Access uint8

const (
	// Read gathers current values; the kernel must not modify them.
	Read Access = iota
	// Write overwrites values; entries the kernel leaves untouched keep
	// their previous contents.
	Write
	// Inc accumulates kernel contributions onto current values.
	// Contributions must be associative and commutative, as no cross-cell
	// ordering is guaranteed.
	Inc
)

func (a Access) String() string {
	switch a {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case Inc:
		return "INC"
	}
	return "UNKNOWN"
}
