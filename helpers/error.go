package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors flattens per-item errors into one, skipping nils. The
// render and config stages collect independent failures and report
// them as a single multi-line error.
func FoldErrors(errs []error) error {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			lines = append(lines, e.Error())
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return errors.Errorf(strings.Join(lines, "\n"))
}
