package blueprint

// Entry is a single key/value pair of a property bag.
type Entry struct {
	Key   PropKey
	Value any
}

// Set creates an entry writing value to the named host property.
func Set(name string, value any) Entry {
	return Entry{Key: Name(name), Value: value}
}

// Use creates an entry attaching plugin with its per-node config.
func Use(plugin *Plugin, config any) Entry {
	return Entry{Key: plugin.Key(), Value: config}
}

// On creates an entry binding callback to event.
func On(event *Event, callback Callback) Entry {
	return Entry{Key: event.Key(), Value: callback}
}

// Props is an immutable ordered property bag.
type Props struct {
	entries []Entry
	index   map[PropKey]int
}

// Properties builds a property bag from entries in order. Assigning the
// same key twice keeps the first position and the last value.
func Properties(entries ...Entry) Props {
	p := Props{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[PropKey]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := p.index[e.Key]; ok {
			p.entries[i].Value = e.Value
			continue
		}
		p.index[e.Key] = len(p.entries)
		p.entries = append(p.entries, e)
	}
	return p
}

// Len returns the number of entries.
func (p Props) Len() int {
	return len(p.entries)
}

// Get returns the value stored at key.
func (p Props) Get(key PropKey) (any, bool) {
	i, ok := p.index[key]
	if !ok {
		return nil, false
	}
	return p.entries[i].Value, true
}

// Entries returns a copy of all entries in insertion order.
func (p Props) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Filter returns the entries of the given kind in insertion order.
func (p Props) Filter(kind KeyKind) []Entry {
	var out []Entry
	for _, e := range p.entries {
		if e.Key.kind == kind {
			out = append(out, e)
		}
	}
	return out
}
