// Package worker hosts one named instance: it owns the bound socket, the
// instance metadata record, the controlled session, the diagnostic buffers,
// and the single-flight queue that keeps execute batches from overlapping.
//
// Info and events requests deliberately bypass the queue. They are read-only
// and always answered immediately, which means a reader can observe buffers
// mid-mutation by an in-flight batch; that responsiveness trade-off is part
// of the protocol contract.
package worker
