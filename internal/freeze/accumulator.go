package freeze

import "fmt"

const bytesPerPixel = 4

// Accumulator owns the rows frozen so far and the cursor of the next row to
// freeze. Its buffer only ever grows and never exceeds one full frame.
type Accumulator struct {
	width       int
	height      int
	rowsPerStep int

	nextRow int
	frozen  []byte
}

// NewAccumulator creates an empty accumulator for width x height frames that
// freezes rowsPerStep rows per call. height must be a multiple of
// rowsPerStep so that the last step lands exactly on the bottom row.
func NewAccumulator(width, height, rowsPerStep int) (*Accumulator, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %dx%d", width, height)
	}
	if rowsPerStep <= 0 {
		return nil, fmt.Errorf("rows per step must be positive, got %d", rowsPerStep)
	}
	if height%rowsPerStep != 0 {
		return nil, fmt.Errorf("height %d is not a multiple of rows per step %d", height, rowsPerStep)
	}
	return &Accumulator{
		width:       width,
		height:      height,
		rowsPerStep: rowsPerStep,
		frozen:      make([]byte, 0, width*height*bytesPerPixel),
	}, nil
}

// Freeze copies the next rowsPerStep rows of live into the frozen buffer and
// advances the cursor. It does nothing once every row is frozen, or when
// live is too short to supply the rows.
func (a *Accumulator) Freeze(live []byte) {
	if a.Complete() {
		return
	}
	stride := a.StrideBytes()
	from := a.nextRow * stride
	to := from + a.rowsPerStep*stride
	if to > len(live) {
		return
	}
	a.frozen = append(a.frozen, live[from:to]...)
	a.nextRow += a.rowsPerStep
}

// Frozen returns the frozen rows, top to bottom. The slice aliases the
// accumulator's buffer and must not be modified.
func (a *Accumulator) Frozen() []byte { return a.frozen }

// NextRow is the index of the next row to freeze.
func (a *Accumulator) NextRow() int { return a.nextRow }

// Complete reports whether the whole frame height has been frozen.
func (a *Accumulator) Complete() bool { return len(a.frozen) >= a.FrameBytes() }

// Width, Height and RowsPerStep return the geometry fixed at construction.
func (a *Accumulator) Width() int { return a.width }
func (a *Accumulator) Height() int { return a.height }
func (a *Accumulator) RowsPerStep() int { return a.rowsPerStep }

// StrideBytes is the byte length of one row.
func (a *Accumulator) StrideBytes() int { return a.width * bytesPerPixel }

// FrameBytes is the byte length of one full frame.
func (a *Accumulator) FrameBytes() int { return a.height * a.StrideBytes() }
