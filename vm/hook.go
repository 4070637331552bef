package vm

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosOutcome is a hook position that triggers after the engine emits
// an OutcomeEvent. The hook context item is the OutcomeEvent.
var HookPosOutcome = &HookPos{Name: "Outcome"}

// HookPosReset is a hook position that triggers after the engine is reset.
// The hook context item is the new Config.
var HookPosReset = &HookPos{Name: "Reset"}

// HookCtx is the context that holds all the information about the site
// that a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable
// object. Sinks that consume the engine's event stream (loggers, GUIs,
// recorders) implement Hook.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
