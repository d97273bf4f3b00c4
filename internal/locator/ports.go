package locator

import "fmt"

// PortRange is an inclusive block of ports.
type PortRange struct {
	First int
	Last  int
}

// DefaultSecure and DefaultInsecure are the blocks the companion binds in.
var (
	DefaultSecure   = PortRange{First: 4370, Last: 4379}
	DefaultInsecure = PortRange{First: 4380, Last: 4389}
)

// Contains reports whether port lies in the range.
func (r PortRange) Contains(port int) bool {
	return port >= r.First && port <= r.Last
}

// Ports lists every port in the range in ascending order.
func (r PortRange) Ports() []int {
	if r.Last < r.First {
		return nil
	}
	ports := make([]int, 0, r.Last-r.First+1)
	for p := r.First; p <= r.Last; p++ {
		ports = append(ports, p)
	}
	return ports
}

// Validate checks the range is well formed.
func (r PortRange) Validate() error {
	if r.First <= 0 || r.Last > 65535 || r.Last < r.First {
		return fmt.Errorf("invalid port range %d-%d", r.First, r.Last)
	}
	return nil
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// Ranges pairs the secure and insecure blocks.
type Ranges struct {
	Secure   PortRange
	Insecure PortRange
}

// Classify infers the protocol of a port. ok is false for ports outside both
// blocks.
func (r Ranges) Classify(port int) (secure bool, ok bool) {
	switch {
	case r.Secure.Contains(port):
		return true, true
	case r.Insecure.Contains(port):
		return false, true
	default:
		return false, false
	}
}
