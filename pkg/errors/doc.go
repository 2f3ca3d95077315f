// Package errors provides structured, coded errors for blueprint.
//
// Every failure the engine can report carries a stable code (e.g. "B021")
// that maps to a registered template with a category, a short message and a
// longer explanation. Errors can be enriched with the offending property key,
// the class name being mounted, a document location and a fix suggestion.
//
// # Error Categories
//
//   - validation: blueprint construction errors (never reach mount)
//   - mount: failures while instantiating a tree; the partial subtree is rolled back
//   - handle: misuse of an unmounted handle
//   - host: errors raised by a host collaborator
//   - protocol: remote host transport errors
//   - document: blueprint document parsing errors
//   - config: configuration errors
//
// # Matching
//
// The exported sentinels match any error with the same code, so callers can
// write:
//
//	if errors.Is(err, bperrors.ErrPropertyAssignment) {
//	    ...
//	}
//
// # Usage
//
//	err := errors.New("B021").
//	    WithClass("Frame").
//	    WithKey("Text").
//	    Wrap(hostErr)
//
//	fmt.Println(err.Format())
package errors
