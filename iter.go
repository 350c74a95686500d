// Range-over-func adapter for readers.
//
// Records wraps the Next loop so callers can write
//
//	for rec, err := range fastx.Records(r) { ... }
//
// Each record is only valid inside the loop body that received it, exactly
// as with Next. The sequence stops after yielding the first error.
package fastx

import (
	"io"
	"iter"
)

// Records yields every remaining record of r. io.EOF is not yielded.
func Records(r Reader) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for {
			rec, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}
