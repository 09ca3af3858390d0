// Package scripting runs AI precondition hooks in sandboxed gopher-lua VMs.
// It knows nothing about combat: every encounter query reaches Lua through
// the Manager's callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget used when none is configured.
const DefaultInstructionLimit = 100_000

// unsafeGlobals are removed from every sandbox after the base library loads.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// opBudget is a context that cancels itself once the VM has executed its
// allowance of opcodes. gopher-lua polls Done once per instruction while a
// context is attached.
type opBudget struct {
	context.Context
	left   atomic.Int64
	cancel context.CancelFunc
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// newBudget returns a fresh opcode allowance of n instructions.
//
// Precondition: n > 0.
func newBudget(n int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: base, cancel: cancel}
	b.left.Store(int64(n))
	return b, cancel
}

// NewSandboxedState returns a VM with only the base, table, string, and math
// libraries, the unsafe globals removed, and an opcode budget of instLimit
// attached. The budget covers everything run on L until a new context is set.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns L and the cancel func and must release both.
func NewSandboxedState(instLimit int) (*lua.LState, context.CancelFunc) {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	ctx, cancel := newBudget(instLimit)
	L.SetContext(ctx)
	return L, cancel
}
