package broadcaster

import (
	"errors"
	"fmt"
)

// makeError joins per node failures in node order. The original errors stay
// reachable so rpc error codes survive.
func makeError(names []string, failures map[string]error) error {
	if len(failures) == 0 {
		return nil
	}
	errs := []error{}
	for _, name := range names {
		if err, ok := failures[name]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
