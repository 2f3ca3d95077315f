package host

// Ref is an opaque reference to a live host object.
type Ref interface {
	// HostID returns an identifier that is unique within the host.
	HostID() string
}

// Connection is an active signal subscription.
type Connection interface {
	// Disconnect stops delivery. Calling it more than once is a no-op.
	Disconnect()
}

// Handler receives the arguments of a fired signal.
type Handler func(args ...any)

// Host is the scene-graph collaborator the mount engine drives.
type Host interface {
	// Create instantiates an object of the given class. It fails with an
	// UnknownClass error if the class is not known to the host.
	Create(className string) (Ref, error)

	// Set writes a property. It fails with an InvalidProperty error if the
	// property does not exist or the value has the wrong type.
	Set(ref Ref, name string, value any) error

	// Get reads a property.
	Get(ref Ref, name string) (any, error)

	// Destroy releases the object and everything still parented to it.
	Destroy(ref Ref) error

	// Attach parents child under parent.
	Attach(parent, child Ref) error

	// Subscribe connects handler to the named signal of ref.
	Subscribe(ref Ref, signal string, handler Handler) (Connection, error)
}

// ChangedSignal returns the signal name a host fires when property changes.
func ChangedSignal(property string) string {
	return ChangedPrefix + property
}

// ChangedPrefix prefixes property-changed signal names.
const ChangedPrefix = "Changed:"
