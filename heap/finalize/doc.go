// Package finalize implements deferred cleanup and the deterministic
// dispose protocol layered on top of it.
//
// # State machine
//
// Per object: Allocated → InUse → {Disposed | PendingFinalization} →
// Reclaimed.
//
// An object that declared a finalizer is intercepted on the pass that
// first finds it unreachable: instead of being reclaimed it is queued here
// and stays alive (and may be promoted) for one more pass. Its memory is
// freed by the first collection after its finalizer has run.
//
// Dispose is the deterministic path: user cleanup runs first, then the
// unconditional base cleanup (suppression plus the disposed mark) runs in
// a defer, mirroring try/finally. A disposed object skips the queue and
// the extra promotion entirely — that is the point of calling it.
//
// # Liveness caveat
//
// Draining the queue is the embedder's job (Runtime.RunFinalizers). If
// the process exits with objects still pending, their finalizers never
// run. That is deliberate: shutdown does not wait on cleanup code.
package finalize
