package store

// Confirmer gates destructive intents.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

var (
	// AlwaysConfirm accepts every prompt.
	AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

	// NeverConfirm declines every prompt.
	NeverConfirm Confirmer = ConfirmFunc(func(string) bool { return false })
)
