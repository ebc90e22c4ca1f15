// Package emit turns tap decisions into synthetic touchTap events and
// routes them to listeners.
//
// Delivery has two phases over a target tree. Capture listeners run from
// the root down to the target, then bubble listeners run from the target
// back up to the root. Any listener may stop propagation. After listener
// delivery the event is published on the event bus under
// "gesture.tap.<source>".
//
// Basic usage:
//
//	tree := emit.NewTree()
//	tree.SetParent("button", "toolbar")
//
//	em := emit.NewEmitter(tree, emit.WithBus(bus))
//	em.Listen("toolbar", emit.PhaseBubble, emit.ListenerFunc(func(ctx context.Context, d *emit.Dispatch) error {
//		fmt.Println("tap on", d.Event.Target)
//		return nil
//	}))
//
//	ev, err := em.Emit(ctx, tap)
package emit
