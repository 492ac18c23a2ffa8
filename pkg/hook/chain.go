package hook

// Hook is a function invoked before or after a service method.
// Returning an error aborts the remaining chain and the operation.
type Hook func(c *Context) error

// Chain is an ordered sequence of hooks
type Chain []Hook

// NewChain creates a new hook chain
func NewChain(hooks ...Hook) Chain {
	return hooks
}

// Append adds hooks to the end of the chain
func (c Chain) Append(hooks ...Hook) Chain {
	result := make(Chain, 0, len(c)+len(hooks))
	result = append(result, c...)
	return append(result, hooks...)
}

// Prepend adds hooks to the beginning of the chain
func (c Chain) Prepend(hooks ...Hook) Chain {
	result := make(Chain, len(hooks)+len(c))
	copy(result, hooks)
	copy(result[len(hooks):], c)
	return result
}

// Run invokes each hook in order, stopping at the first error.
// Nil hooks are skipped.
func (c Chain) Run(ctx *Context) error {
	for _, h := range c {
		if h == nil {
			continue
		}
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Hook collapses the chain into a single hook.
func (c Chain) Hook() Hook {
	return c.Run
}
