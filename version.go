package chainkv

import "fmt"

// Version constants
const (
	Major = 0
	Minor = 3
	Patch = 0
)

// Version returns the library version, e.g. "0.3.0".
func Version() string {
	return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
}
