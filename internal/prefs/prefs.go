package prefs

import (
	"context"
	"slices"
	"strings"

	"pkt.systems/prattle/schema"
)

// MaxRecent bounds the remembered JIDs.
const MaxRecent = 32

// Prefs captures per-user preferences.
type Prefs struct {
	Beep      bool             `yaml:"beep"`
	Flash     bool             `yaml:"flash"`
	Theme     schema.ThemeName `yaml:"theme,omitempty"`
	Roster    bool             `yaml:"roster"`
	Occupants bool             `yaml:"occupants"`
	Recent    []string         `yaml:"recent,omitempty"`
}

type prefsKey struct{}

// New returns a new Prefs instance with defaults applied.
func New() *Prefs {
	return &Prefs{Roster: true, Occupants: true}
}

// AddRecent records jid as the most recent conversation partner.
func (p *Prefs) AddRecent(jid string) {
	jid = strings.TrimSpace(jid)
	if p == nil || jid == "" {
		return
	}
	p.Recent = slices.DeleteFunc(p.Recent, func(v string) bool { return v == jid })
	p.Recent = slices.Insert(p.Recent, 0, jid)
	if len(p.Recent) > MaxRecent {
		p.Recent = p.Recent[:MaxRecent]
	}
}

// Clone returns a deep copy.
func (p *Prefs) Clone() *Prefs {
	if p == nil {
		return nil
	}
	out := *p
	out.Recent = slices.Clone(p.Recent)
	return &out
}

// WithContext stores prefs in the context.
func WithContext(ctx context.Context, prefs *Prefs) context.Context {
	if ctx == nil || prefs == nil {
		return ctx
	}
	return context.WithValue(ctx, prefsKey{}, prefs)
}

// FromContext returns the prefs stored in the context, if any.
func FromContext(ctx context.Context) *Prefs {
	if ctx == nil {
		return nil
	}
	if value := ctx.Value(prefsKey{}); value != nil {
		if prefs, ok := value.(*Prefs); ok {
			return prefs
		}
	}
	return nil
}
