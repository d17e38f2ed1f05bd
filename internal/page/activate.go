package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/izzyreal/padnav/internal/resolver"
)

// ErrNoElement means the element handle no longer refers to a live element.
var ErrNoElement = errors.New("element is not attached to the page")

// Activator performs the two activation steps on a live element.
type Activator interface {
	// DispatchClick fires a synthetic bubbling, cancelable click at x,y.
	DispatchClick(ctx context.Context, id int, x, y float64) error
	// NativeClick invokes the element's own click() and reports whether it
	// had one.
	NativeClick(ctx context.Context, id int) (bool, error)
}

// Activate runs the activation protocol: a synthetic pointer click at the
// element's center, then the element's native activation. Sites listen on
// one or the other, so both steps always run.
func Activate(ctx context.Context, a Activator, el resolver.Element) error {
	id, ok := el.ID()
	if !ok {
		return ErrNoElement
	}
	x, y, _ := el.Center()
	if err := a.DispatchClick(ctx, id, x, y); err != nil {
		return fmt.Errorf("dispatch click: %w", err)
	}
	if _, err := a.NativeClick(ctx, id); err != nil {
		return fmt.Errorf("native click: %w", err)
	}
	return nil
}
