//go:build windows

package preflight

import (
	"os"
)

// Windows has no access(2); a create-and-remove probe is the reliable test.
func checkAccess(path string) error {
	f, err := os.CreateTemp(path, ".delivery-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
