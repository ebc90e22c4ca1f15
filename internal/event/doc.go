// Package event provides the synchronous topic bus that carries emitted
// taps to observers such as output writers and script hooks.
//
// # Event Topics
//
// Events use hierarchical topics with dot notation:
//
//	gesture.tap.<source>    - A tap was emitted for an input source
//
// # Wildcard Patterns
//
// Subscriptions support wildcard patterns:
//
//	gesture.tap.*     - Taps from every source
//	gesture.**        - Every gesture event
//
// # Delivery
//
// Publish delivers to every matching subscription in priority order on the
// caller's goroutine and returns once all handlers have run. A panicking
// handler is isolated and reported as a *PanicError; the remaining handlers
// still run.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	sub, _ := bus.SubscribeFunc("gesture.tap.*", func(ctx context.Context, e any) error {
//	    tap := e.(event.Event[*emit.TapEvent])
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
package event
