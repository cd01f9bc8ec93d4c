package worklist

import "sync"

// Worklist is a FIFO queue. The *Conc methods may be called from several
// goroutines at once; the others may not.
type Worklist[T any] struct {
	list []T
	mu   sync.Mutex
}

// StartV runs the iteration function on every element of a preloaded queue.
// The function may add more elements through add.
func StartV[T any](start []T, do func(next T, add func(el T))) {
	W := Of(start...)
	W.Process(do)
}

// Of creates a worklist holding the given elements in order.
func Of[T any](elems ...T) *Worklist[T] {
	w := &Worklist[T]{list: make([]T, 0, len(elems))}
	w.list = append(w.list, elems...)
	return w
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	next := w.list[0]
	w.list = w.list[1:]
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Len() int {
	return len(w.list)
}

func (w *Worklist[T]) Process(do func(next T, add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

func (w *Worklist[T]) AddConc(el T) {
	w.mu.Lock()
	w.Add(el)
	w.mu.Unlock()
}

// TryNextConc removes the next element. ok is false if the worklist is empty.
func (w *Worklist[T]) TryNextConc() (next T, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.IsEmpty() {
		return next, false
	}
	return w.GetNext(), true
}
