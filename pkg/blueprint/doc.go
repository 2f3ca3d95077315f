// Package blueprint provides the immutable tree description that the mount
// engine instantiates.
//
// A Node is a class name, an ordered property bag and an ordered list of
// children. Nodes never touch a host: building a tree is a pure operation
// and the same tree can be mounted any number of times.
//
// # Property Keys
//
// A property bag is a single ordered mapping whose keys are one of:
//
//   - a plain name, written to the host object (Set)
//   - a Plugin identity carrying lifecycle hooks (Use)
//   - an Event identity bound to a host signal (On)
//
// Insertion order is part of the contract. Two plugins on the same node run
// OnMount in authored order and OnUnmount in the reverse order.
//
//	frame := blueprint.MustCreate("Frame",
//	    blueprint.Properties(
//	        blueprint.Set("Text", "Buy"),
//	        blueprint.On(blueprint.Events.Named("Activated"), onBuy),
//	        blueprint.Use(tooltip, "Adds to cart"),
//	    ),
//	    blueprint.Keyed("Title", title),
//	)
//
// # Components
//
// Component wraps a pure function from props to a Node. Side effects belong
// in a plugin's OnMount hook, never in the component function.
package blueprint
