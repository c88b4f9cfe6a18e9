package templates

// KeyboardColumns is the number of buttons per keyboard row.
const KeyboardColumns = 2

// Button is one inline button: what the user sees and what comes back on press.
type Button struct {
	Label   string
	Payload string
}

// Keyboard is an ordered grid of button rows.
type Keyboard [][]Button

// Len reports the number of buttons in the grid.
func (k Keyboard) Len() int {
	n := 0
	for _, row := range k {
		n += len(row)
	}
	return n
}

// Keyboard builds a grid for fixed actions. Labels come from call_back.<id>,
// the id itself is the payload.
func (r *Renderer) Keyboard(ids ...string) (Keyboard, error) {
	buttons := make([]Button, 0, len(ids))
	for _, id := range ids {
		label, err := r.store.Lookup(DomainCallback, id)
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, Button{Label: label, Payload: id})
	}
	return layout(buttons), nil
}

// RawKeyboard builds a grid where every string is both label and payload,
// e.g. bot handles.
func (r *Renderer) RawKeyboard(labels ...string) Keyboard {
	return RawKeyboard(labels...)
}

// RawKeyboard is the store-independent form of Renderer.RawKeyboard.
func RawKeyboard(labels ...string) Keyboard {
	buttons := make([]Button, 0, len(labels))
	for _, l := range labels {
		buttons = append(buttons, Button{Label: l, Payload: l})
	}
	return layout(buttons)
}

func layout(buttons []Button) Keyboard {
	rows := make(Keyboard, 0, (len(buttons)+KeyboardColumns-1)/KeyboardColumns)
	for i := 0; i < len(buttons); i += KeyboardColumns {
		end := min(i+KeyboardColumns, len(buttons))
		rows = append(rows, buttons[i:end:end])
	}
	return rows
}
