package detector

import (
	"sync"

	"github.com/Sumatoshi-tech/editmine/pkg/lang"
)

// Registry hands out one Detector per language, created on first use with
// shared options. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	opts   []Option
	byLang map[lang.Language]*Detector
}

// NewRegistry creates a registry whose detectors are built with opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:   opts,
		byLang: make(map[lang.Language]*Detector),
	}
}

// For returns the detector of l.
func (r *Registry) For(l lang.Language) (*Detector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.byLang[l]; ok {
		return d, nil
	}

	d, err := New(l, r.opts...)
	if err != nil {
		return nil, err
	}

	r.byLang[l] = d

	return d, nil
}

// Lookup resolves a language name and returns its detector.
func (r *Registry) Lookup(name string) (*Detector, error) {
	l, err := lang.ParseLanguage(name)
	if err != nil {
		return nil, err
	}

	return r.For(l)
}
