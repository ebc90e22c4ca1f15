package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/taptrack/internal/event/topic"
)

// Bus is the event bus interface.
type Bus interface {
	// Publish delivers event to every matching subscription and returns
	// the joined handler errors.
	Publish(ctx context.Context, event any) error

	Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription) error

	Stats() Stats
}

// bus is the default Bus implementation.
type bus struct {
	mu   sync.RWMutex
	subs []*subscription
	seq  uint64

	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// NewBus creates a new synchronous event bus.
func NewBus() Bus {
	return &bus{}
}

// Publish delivers event synchronously.
func (b *bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || !tp.EventTopic().IsValid() {
		return ErrInvalidEvent
	}
	eventTopic := tp.EventTopic()

	subs := b.match(eventTopic)
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if !sub.IsActive() {
			continue
		}

		err := b.deliver(ctx, sub, event)
		switch {
		case errors.Is(err, ErrHandlerPanic):
			b.handlerPanics.Add(1)
			errs = append(errs, err)
		case err != nil:
			b.handlerErrors.Add(1)
			errs = append(errs, &HandlerError{SubscriptionID: sub.id, Topic: sub.pattern.String(), Err: err})
		default:
			b.eventsDelivered.Add(1)
			if sub.config.Once {
				sub.Cancel()
				b.remove(sub.id)
			}
		}
	}

	return errors.Join(errs...)
}

// deliver runs one handler with panic isolation.
func (b *bus) deliver(ctx context.Context, sub *subscription, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{SubscriptionID: sub.id, Topic: sub.pattern.String(), Value: r}
		}
	}()
	return sub.handler.Handle(ctx, event)
}

// match returns the subscriptions matching t, ordered by priority and
// then by subscription order.
func (b *bus) match(t topic.Topic) []*subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*subscription
	for _, sub := range b.subs {
		if sub.IsActive() && t.Matches(sub.pattern) {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].config.Priority != out[j].config.Priority {
			return out[i].config.Priority < out[j].config.Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Subscribe creates a new subscription for the given topic pattern.
func (b *bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := newSubscription(NewID(), pattern, handler, b.seq, opts...)
	b.subs = append(b.subs, sub)
	return sub, nil
}

// SubscribeFunc subscribes a function handler.
func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe removes a subscription.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}
	sub.Cancel()
	if !b.remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (b *bus) remove(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}
