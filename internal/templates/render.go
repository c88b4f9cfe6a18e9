package templates

import (
	"fmt"
	"strings"
)

// Template domains of the template file.
const (
	DomainCommand  = "command"
	DomainMessage  = "message"
	DomainCallback = "call_back"
)

// RenderError reports a placeholder that could not be substituted.
type RenderError struct {
	Template    string
	Placeholder string
	Reason      string
}

func (e *RenderError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("render %s: placeholder {%s}: %s", e.Template, e.Placeholder, e.Reason)
	}
	return fmt.Sprintf("render %s: %s", e.Template, e.Reason)
}

// Code classifies the error for handler summaries.
func (e *RenderError) Code() string { return "RENDER" }

// Renderer produces message texts and keyboards from one Store snapshot.
type Renderer struct {
	store *Store
}

// NewRenderer wraps store.
func NewRenderer(store *Store) *Renderer {
	return &Renderer{store: store}
}

// Text returns the template at path unchanged.
func (r *Renderer) Text(path ...string) (string, error) {
	return r.store.Lookup(path...)
}

// Textf returns the template at path with {name} placeholders replaced from values.
func (r *Renderer) Textf(values map[string]string, path ...string) (string, error) {
	tpl, err := r.store.Lookup(path...)
	if err != nil {
		return "", err
	}
	return Format(strings.Join(path, "."), tpl, values)
}

// Format substitutes {name} placeholders in tpl. Literal braces are written
// as {{ and }}. name identifies the template in errors.
func Format(name, tpl string, values map[string]string) (string, error) {
	if !strings.ContainsAny(tpl, "{}") {
		return tpl, nil
	}
	var b strings.Builder
	b.Grow(len(tpl))
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return "", &RenderError{Template: name, Reason: "unclosed '{'"}
			}
			key := strings.TrimSpace(tpl[i+1 : i+1+end])
			if key == "" {
				return "", &RenderError{Template: name, Reason: "empty placeholder"}
			}
			val, ok := values[key]
			if !ok {
				return "", &RenderError{Template: name, Placeholder: key, Reason: "no value"}
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", &RenderError{Template: name, Reason: "single '}'"}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
