package vars

import (
	"regexp"
)

type Provider interface {
	Resolve(name string) (string, bool)
	Label() string
}

type MapProvider struct {
	values map[string]string
	label  string
}

func NewMapProvider(label string, values map[string]string) *MapProvider {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapProvider{values: copied, label: label}
}

func (p *MapProvider) Resolve(name string) (string, bool) {
	value, ok := p.values[name]
	return value, ok
}

func (p *MapProvider) Label() string {
	return p.label
}

// Scope layers providers lowest precedence first; an overlay written through
// Set outranks every provider. Lookup is last-write-wins per key.
type Scope struct {
	providers []Provider
	overlay   map[string]string
}

func NewScope(providers ...Provider) *Scope {
	return &Scope{providers: providers, overlay: make(map[string]string)}
}

func (s *Scope) Resolve(name string) (string, bool) {
	if value, ok := s.overlay[name]; ok {
		return value, true
	}
	for i := len(s.providers) - 1; i >= 0; i-- {
		if value, ok := s.providers[i].Resolve(name); ok {
			return value, true
		}
	}
	return "", false
}

// Set writes into the invocation overlay. Lower layers never see the write;
// persistence is an explicit Flatten + save by the caller.
func (s *Scope) Set(name, value string) {
	s.overlay[name] = value
}

var placeholderPattern = regexp.MustCompile(`\$[A-Za-z_]+`)

// Expand replaces every $identifier with its scope value, or the empty
// string when the name is unknown. Pure: same template and scope always
// produce the same output.
func (s *Scope) Expand(template string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		value, _ := s.Resolve(match[1:])
		return value
	})
}

// Flatten merges all layers into one flat map, honoring precedence order.
func (s *Scope) Flatten() map[string]string {
	merged := make(map[string]string)
	for _, provider := range s.providers {
		if lister, ok := provider.(interface{ Values() map[string]string }); ok {
			for k, v := range lister.Values() {
				merged[k] = v
			}
		}
	}
	for k, v := range s.overlay {
		merged[k] = v
	}
	return merged
}

// Values exposes the provider contents for Flatten.
func (p *MapProvider) Values() map[string]string {
	copied := make(map[string]string, len(p.values))
	for k, v := range p.values {
		copied[k] = v
	}
	return copied
}
