// Package mount instantiates blueprint trees against a host and tears them
// down again.
//
// # Mount Order
//
// For every node, depth-first and pre-order, the Mounter:
//
//  1. creates the host object for the node's class
//  2. writes plain properties in bag order (animation goals are registered
//     with the Solver at their position in the bag)
//  3. binds event keys in bag order
//  4. runs plugin OnMount hooks in bag order
//  5. mounts children in declared order, then attaches the object to its
//     parent
//
// Any failure in steps 2-5 rolls the node back: mounted children are
// unmounted, the plugins that already ran are torn down in reverse, events
// are disconnected, goals deregistered and the object destroyed. The
// original error is returned and no handle escapes.
//
// # Unmount Order
//
// Handle.Unmount tears down children first (reverse declared order), then
// disconnects events, runs plugin OnUnmount hooks in reverse mount order,
// deregisters animation goals and finally destroys the host object. A second
// call is a no-op.
//
// # Signals
//
// Event callbacks receive the owning *Handle, never the raw host object.
// Signals that arrive before a node's subtree has finished mounting are
// queued and delivered right after it completes.
package mount
