package record

import "sync"

// Batch is a reusable sequence of records.
// A Batch obtained from Acquire must be given back with Release exactly once;
// Release is a no-op on nil and on an already released batch.
type Batch struct {
	Records  []Record
	released bool
}

var batchPool = sync.Pool{
	New: func() any { return &Batch{Records: make([]Record, 0, 16)} },
}

// Acquire takes an empty batch from the pool.
func Acquire() *Batch {
	b := batchPool.Get().(*Batch)
	b.released = false
	return b
}

// Of acquires a batch holding recs.
func Of(recs ...Record) *Batch {
	b := Acquire()
	b.Records = append(b.Records, recs...)
	return b
}

// Append adds a record.
func (b *Batch) Append(r Record) { b.Records = append(b.Records, r) }

// Len returns the number of records; a nil batch is empty.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// Release clears the batch and returns it to the pool.
func (b *Batch) Release() {
	if b == nil || b.released {
		return
	}
	clear(b.Records)
	b.Records = b.Records[:0]
	b.released = true
	batchPool.Put(b)
}
