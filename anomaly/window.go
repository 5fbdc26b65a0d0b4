package anomaly

import "github.com/gammazero/deque"

// Window is a fixed-capacity FIFO of the most recent observations.
type Window struct {
	buf      deque.Deque[float64]
	capacity int
}

// NewWindow builds an empty window holding at most capacity values.
func NewWindow(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Window{capacity: capacity}, nil
}

// Push appends v, evicting the oldest value first when the window is full.
func (w *Window) Push(v float64) {
	if w.buf.Len() >= w.capacity {
		w.buf.PopFront()
	}
	w.buf.PushBack(v)
}

func (w *Window) Len() int      { return w.buf.Len() }
func (w *Window) Capacity() int { return w.capacity }
func (w *Window) IsEmpty() bool { return w.buf.Len() == 0 }
func (w *Window) IsFull() bool  { return w.buf.Len() == w.capacity }

// Values returns a copy of the window contents, oldest first.
func (w *Window) Values() []float64 {
	return w.appendTo(make([]float64, 0, w.buf.Len()+1))
}

// withPushed returns the contents the window would hold after Push(v),
// leaving the window itself untouched.
func (w *Window) withPushed(v float64) []float64 {
	start := 0
	if w.buf.Len() >= w.capacity {
		start = 1
	}
	out := make([]float64, 0, w.buf.Len()+1-start)
	for i := start; i < w.buf.Len(); i++ {
		out = append(out, w.buf.At(i))
	}
	return append(out, v)
}

func (w *Window) appendTo(dst []float64) []float64 {
	for i := 0; i < w.buf.Len(); i++ {
		dst = append(dst, w.buf.At(i))
	}
	return dst
}
