package status

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// json marshaling for the emit path. Key order follows Record's field
// order (text, class, tooltip), which the host relies on being stable.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Emitter serializes records to a writer, one JSON object per line. The
// writer is not buffered by the Emitter; the bar host reads line by line
// and must see each record as soon as it is written.
type Emitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEmitter returns an Emitter writing to w (normally os.Stdout).
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes rec as a single newline-terminated JSON object. A record is
// written whole or not at all; marshal failures never leave partial JSON
// on the stream.
func (e *Emitter) Emit(rec Record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("status: marshal record: %w", err)
	}
	buf = append(buf, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("status: write record: %w", err)
	}
	return nil
}
