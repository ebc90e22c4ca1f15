package gesture

import (
	"sort"
	"sync"
)

// Pool keeps one Recognizer per input source.
type Pool struct {
	mu sync.RWMutex

	thresholds Thresholds
	opts       []Option
	shared     bool

	recognizers map[string]*Recognizer
}

// NewPool creates a pool whose recognizers share the given thresholds
// and options.
func NewPool(t Thresholds, opts ...Option) *Pool {
	return &Pool{
		thresholds:  t,
		opts:        opts,
		recognizers: make(map[string]*Recognizer),
	}
}

// NewSharedPool creates a pool that routes every source to one recognizer,
// so all sources share a single gesture state.
func NewSharedPool(t Thresholds, opts ...Option) *Pool {
	p := NewPool(t, opts...)
	p.shared = true
	return p
}

// Get returns the recognizer for source, creating it on first use.
func (p *Pool) Get(source string) *Recognizer {
	key := p.key(source)

	p.mu.RLock()
	r, ok := p.recognizers[key]
	p.mu.RUnlock()
	if ok {
		return r
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.recognizers[key]; ok {
		return r
	}
	r = NewRecognizer(p.thresholds, p.opts...)
	p.recognizers[key] = r
	return r
}

func (p *Pool) key(source string) string {
	if p.shared {
		return ""
	}
	return source
}

// Step routes ev to the recognizer of its source.
func (p *Pool) Step(ev Event) (Verdict, *Tap) {
	return p.Get(ev.Source).Step(ev)
}

// Handle routes ev to the recognizer of its source.
func (p *Pool) Handle(ev Event) *Tap {
	return p.Get(ev.Source).Handle(ev)
}

// Sources returns the sources seen so far, sorted.
func (p *Pool) Sources() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.recognizers))
	for k := range p.recognizers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stats returns the counters summed over every recognizer.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var total Stats
	for _, r := range p.recognizers {
		total = total.Add(r.Stats())
	}
	return total
}

// Remove drops the recognizer of source.
func (p *Pool) Remove(source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.recognizers, p.key(source))
}
