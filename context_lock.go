package stackform

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
)

var locks = sync.Map{}

// getContextLock ensures that a HCL Context is not written and read
// at the same time
func getContextLock(ctx *hcl.EvalContext) func() {
	var lock any
	var ok bool

	lock, ok = locks.Load(ctx)

	// lazy instantiate the lock
	if !ok {
		lock = &sync.Mutex{}

		locks.Store(ctx, lock)
	}

	// obtain a lock
	lock.(*sync.Mutex).Lock()

	// return a function to allow unlocking
	return func() {
		lock.(*sync.Mutex).Unlock()
	}
}

// withContextLock runs the given function while holding the lock for the
// given context
func withContextLock(ctx *hcl.EvalContext, f func()) {
	ul := getContextLock(ctx)
	defer ul()

	f()
}

var resourceLocks = sync.Map{}

// getResourceLock locks the given resource so that only a single graph
// callback can mutate it at a time
func getResourceLock(r any) func() {
	lock, _ := resourceLocks.LoadOrStore(r, &sync.Mutex{})

	lock.(*sync.Mutex).Lock()

	return func() {
		lock.(*sync.Mutex).Unlock()
	}
}
