package window

import "time"

const minDequeCap = 8

// deque is a growable ring buffer of timestamps. Push appends at the tail,
// Pop removes from the head; both are O(1) amortized.
type deque struct {
	buf  []time.Time
	head int
	size int
}

func (d *deque) Len() int { return d.size }

func (d *deque) Push(ts time.Time) {
	if d.size == len(d.buf) {
		d.grow()
	}
	d.buf[(d.head+d.size)%len(d.buf)] = ts
	d.size++
}

// Front returns the oldest timestamp. The deque must not be empty.
func (d *deque) Front() time.Time {
	return d.buf[d.head]
}

// Back returns the newest timestamp. The deque must not be empty.
func (d *deque) Back() time.Time {
	return d.buf[(d.head+d.size-1)%len(d.buf)]
}

func (d *deque) Pop() time.Time {
	ts := d.buf[d.head]
	d.buf[d.head] = time.Time{}
	d.head = (d.head + 1) % len(d.buf)
	d.size--
	if d.size == 0 {
		d.head = 0
	}
	d.maybeShrink()
	return ts
}

func (d *deque) grow() {
	newCap := len(d.buf) * 2
	if newCap < minDequeCap {
		newCap = minDequeCap
	}
	d.resize(newCap)
}

// maybeShrink releases memory after a burst has been evicted.
func (d *deque) maybeShrink() {
	if len(d.buf) > minDequeCap && d.size <= len(d.buf)/4 {
		d.resize(len(d.buf) / 2)
	}
}

func (d *deque) resize(capacity int) {
	buf := make([]time.Time, capacity)
	for i := 0; i < d.size; i++ {
		buf[i] = d.buf[(d.head+i)%len(d.buf)]
	}
	d.buf = buf
	d.head = 0
}
