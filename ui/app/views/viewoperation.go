package views

import (
	"context"
	"sync"
)

// viewOperation holds an operation manager instance.
// Only one operation can run at a time.
type viewOperation struct {
	cancel func()
	lock   sync.Mutex

	root *Views
}

// newViewOperation returns a new operations manager.
func newViewOperation(root *Views) *viewOperation {
	return &viewOperation{root: root}
}

// startOperation starts the operation with a cancellable context.
// If the operation is cancelled, cancelText is displayed on the status bar.
func (v *viewOperation) startOperation(dofunc func(ctx context.Context), cancelText string) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.cancel != nil {
		v.root.status.InfoMessage("Operation still in progress", false)
		return
	}

	ctx, cancel := context.WithCancel(v.root.ctx)
	v.cancel = func() {
		cancel()
		if cancelText != "" {
			v.root.status.InfoMessage(cancelText, false)
		}
	}

	go func() {
		defer cancel()

		dofunc(ctx)
		v.cancelOperation(false)
	}()
}

// cancelOperation clears the currently running operation, and
// cancels it if cancelfunc is set.
func (v *viewOperation) cancelOperation(cancelfunc bool) {
	v.lock.Lock()
	defer v.lock.Unlock()

	if v.cancel == nil {
		return
	}

	cancel := v.cancel
	v.cancel = nil

	if cancelfunc {
		go cancel()
	}
}
