package blueprint

// KeyKind is the property key discriminator.
type KeyKind uint8

const (
	KeyInvalid KeyKind = iota // Zero value, rejected by Create
	KeyString                 // Host property name
	KeyPlugin                 // Plugin identity
	KeyEvent                  // Event identity
)

// String returns the string representation of the KeyKind.
func (k KeyKind) String() string {
	switch k {
	case KeyString:
		return "String"
	case KeyPlugin:
		return "Plugin"
	case KeyEvent:
		return "Event"
	default:
		return "Invalid"
	}
}

// PropKey is a property bag key: a name, a plugin or an event.
// PropKey values are comparable and usable as map keys.
type PropKey struct {
	kind   KeyKind
	name   string
	plugin *Plugin
	event  *Event
}

// Name returns the key for a plain host property.
func Name(name string) PropKey {
	return PropKey{kind: KeyString, name: name}
}

// Kind returns the key discriminator.
func (k PropKey) Kind() KeyKind { return k.kind }

// PropertyName returns the host property name for KeyString keys.
func (k PropKey) PropertyName() string { return k.name }

// Plugin returns the plugin for KeyPlugin keys.
func (k PropKey) Plugin() *Plugin { return k.plugin }

// Event returns the event for KeyEvent keys.
func (k PropKey) Event() *Event { return k.event }

// String returns a readable form used in errors and logs.
func (k PropKey) String() string {
	switch k.kind {
	case KeyString:
		return k.name
	case KeyPlugin:
		if k.plugin == nil {
			return "@<nil>"
		}
		return "@" + k.plugin.name
	case KeyEvent:
		if k.event == nil {
			return "on:<nil>"
		}
		return "on:" + k.event.signal
	default:
		return "<invalid>"
	}
}

// valid reports whether the key is a non-empty name, a registered plugin
// or an interned event.
func (k PropKey) valid() bool {
	switch k.kind {
	case KeyString:
		return k.name != ""
	case KeyPlugin:
		return k.plugin != nil && k.plugin.id != 0
	case KeyEvent:
		return k.event != nil && k.event.ns != nil
	default:
		return false
	}
}
