// Package stdout writes verification reports as JSON lines.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/couchcryptid/rfw-verification/internal/verify"
)

// Writer encodes one report per line to an io.Writer.
// It implements pipeline.ReportLoader.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// LoadBatch writes the reports in order, stopping at the first failure.
func (w *Writer) LoadBatch(ctx context.Context, reports []verify.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.enc.Encode(reports[i]); err != nil {
			return fmt.Errorf("write report %q: %w", reports[i].Label, err)
		}
	}
	return nil
}
