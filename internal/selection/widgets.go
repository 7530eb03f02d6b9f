package selection

// MultiSelect models the subdivision dropdown. Its selected set is written only
// by the owning Controller; user edits arrive through Choose and are forwarded
// to the change handler without touching the widget directly.
type MultiSelect struct {
	options  []string
	selected []string
	onChange func([]string) error
}

func newMultiSelect(options []string) *MultiSelect {
	return &MultiSelect{options: append([]string(nil), options...)}
}

func (w *MultiSelect) Options() []string {
	return append([]string(nil), w.options...)
}

func (w *MultiSelect) Selected() []string {
	return append([]string(nil), w.selected...)
}

func (w *MultiSelect) has(name string) bool {
	for _, o := range w.options {
		if o == name {
			return true
		}
	}
	return false
}

// setSelected updates the widget silently, without a change notification.
func (w *MultiSelect) setSelected(names []string) {
	w.selected = append([]string(nil), names...)
}

// Choose is the widget's user-facing entry point: it raises a change
// notification carrying the new selection.
func (w *MultiSelect) Choose(names []string) error {
	if w.onChange == nil {
		return nil
	}
	return w.onChange(names)
}

// SubdivisionList is the plain list of subdivisions; an item is highlighted
// exactly when it is part of the current selection.
type SubdivisionList struct {
	items       []string
	highlighted map[string]bool
}

func newSubdivisionList(items []string) *SubdivisionList {
	return &SubdivisionList{items: append([]string(nil), items...), highlighted: make(map[string]bool)}
}

func (l *SubdivisionList) Items() []string {
	return append([]string(nil), l.items...)
}

// Highlighted returns highlighted items in list order.
func (l *SubdivisionList) Highlighted() []string {
	out := make([]string, 0, len(l.highlighted))
	for _, it := range l.items {
		if l.highlighted[it] {
			out = append(out, it)
		}
	}
	return out
}

func (l *SubdivisionList) IsHighlighted(name string) bool { return l.highlighted[name] }

func (l *SubdivisionList) setHighlighted(names []string) {
	l.highlighted = make(map[string]bool, len(names))
	for _, n := range names {
		l.highlighted[n] = true
	}
}
