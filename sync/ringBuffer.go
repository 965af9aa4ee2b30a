package sync

import (
	gosync "sync"

	"github.com/MysterionRise/chemical-similarity/datastore"
)

const rbExp = 8 // 2e8 = 256 buckets, contain 255 recent compounds
const rbSize = 1 << rbExp
const rbCapacity = rbSize - 1

// ringBuffer keeps the most recently indexed compounds for the status
// API; old entries fall off the back. Writers push from the sync
// goroutines while the HTTP handlers peek, so access is locked.
type ringBuffer struct {
	mu     gosync.Mutex
	recent [rbSize]*datastore.CompoundData
	front  int
	back   int
}

func (rb *ringBuffer) Push(cd *datastore.CompoundData) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.front = (rb.front + 1) & rbCapacity
	rb.recent[rb.front] = cd
	if rb.front == rb.back {
		rb.back = (rb.back + 1) & rbCapacity
	}
}

func (rb *ringBuffer) PopFront() *datastore.CompoundData {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.front == rb.back {
		return nil
	}

	cd := rb.recent[rb.front]
	// decrement front index
	rb.front = (rb.front + rbCapacity) & rbCapacity

	return cd
}

func (rb *ringBuffer) PopBack() *datastore.CompoundData {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.front == rb.back {
		return nil
	}

	cd := rb.recent[rb.back]
	// increment back index
	rb.back = (rb.back + 1) & rbCapacity

	return cd
}

func (rb *ringBuffer) PeekFront() *datastore.CompoundData {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.front == rb.back {
		return nil
	}

	return rb.recent[rb.front]
}

func (rb *ringBuffer) PeekBack() *datastore.CompoundData {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.front == rb.back {
		return nil
	}

	return rb.recent[rb.back]
}

func (rb *ringBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return (rb.front + rbSize - rb.back) & rbCapacity
}

func (rb *ringBuffer) Get(i int) *datastore.CompoundData {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if i < 0 {
		return rb.recent[(rb.front+i+1)&rbCapacity]
	}
	return rb.recent[(rb.back+i)&rbCapacity]
}

func (rb *ringBuffer) Cap() int {
	return rbCapacity
}
