package cmd

import (
	"fmt"
	"io"

	"github.com/jing2uo/pricepanel/validate"
)

// Validate checks the long table at path and prints [OK] or [FAIL] to w.
// A failure is returned wrapped in ErrReported.
func Validate(path string, w io.Writer) error {
	report, err := validate.File(path)
	if err != nil {
		fmt.Fprintf(w, "[FAIL] %v\n", err)
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	fmt.Fprintln(w, report.String())
	return nil
}
