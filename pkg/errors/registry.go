package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Construction Errors (B001-B019)
	// ============================================

	"B001": {
		Category: CategoryValidation,
		Message:  "Invalid class name",
		Detail:   "A blueprint node needs a non-empty class name identifying the kind of host object to create.",
		DocURL:   "https://blueprint.vango.dev/errors/B001",
	},
	"B002": {
		Category: CategoryValidation,
		Message:  "Duplicate child key",
		Detail:   "Two children of the same node resolve to the same address. Unkeyed children are addressed by their zero-based position.",
		DocURL:   "https://blueprint.vango.dev/errors/B002",
	},
	"B003": {
		Category: CategoryValidation,
		Message:  "Invalid property key",
		Detail:   "Property keys must be a non-empty name, a plugin made by CreatePlugin, or an event from the Events namespace. Event keys need a Callback value.",
		DocURL:   "https://blueprint.vango.dev/errors/B003",
	},
	"B004": {
		Category: CategoryValidation,
		Message:  "Invalid child key",
		Detail:   "Child keys must be comparable values such as strings or integers.",
		DocURL:   "https://blueprint.vango.dev/errors/B004",
	},
	"B005": {
		Category: CategoryValidation,
		Message:  "Nil child node",
		Detail:   "Every child entry must reference a node built with Create.",
		DocURL:   "https://blueprint.vango.dev/errors/B005",
	},
	"B006": {
		Category: CategoryValidation,
		Message:  "Invalid plugin",
		Detail:   "A plugin needs a name and an OnMount hook.",
		DocURL:   "https://blueprint.vango.dev/errors/B006",
	},

	// ============================================
	// Mount Errors (B020-B029)
	// ============================================

	"B020": {
		Category: CategoryMount,
		Message:  "Host object creation failed",
		Detail:   "The host could not create or attach the object for this node. The partially mounted subtree was rolled back.",
		DocURL:   "https://blueprint.vango.dev/errors/B020",
	},
	"B021": {
		Category: CategoryMount,
		Message:  "Property assignment failed",
		Detail:   "The host rejected a property write. The partially mounted subtree was rolled back.",
		DocURL:   "https://blueprint.vango.dev/errors/B021",
	},
	"B022": {
		Category: CategoryMount,
		Message:  "Plugin mount failed",
		Detail:   "A plugin OnMount hook returned an error or panicked. The partially mounted subtree was rolled back.",
		DocURL:   "https://blueprint.vango.dev/errors/B022",
	},
	"B023": {
		Category: CategoryMount,
		Message:  "Event binding failed",
		Detail:   "The host refused a signal subscription. The partially mounted subtree was rolled back.",
		DocURL:   "https://blueprint.vango.dev/errors/B023",
	},

	// ============================================
	// Handle Errors (B030-B039)
	// ============================================

	"B030": {
		Category: CategoryHandle,
		Message:  "Stale handle",
		Detail:   "The handle has been unmounted and no longer refers to a live host object.",
		DocURL:   "https://blueprint.vango.dev/errors/B030",
	},

	// ============================================
	// Host Errors (B040-B049)
	// ============================================

	"B040": {
		Category: CategoryHost,
		Message:  "Unknown class",
		Detail:   "The host does not know how to create objects of this class.",
		DocURL:   "https://blueprint.vango.dev/errors/B040",
	},
	"B041": {
		Category: CategoryHost,
		Message:  "Invalid property",
		Detail:   "The property does not exist on this class or the value has the wrong type.",
		DocURL:   "https://blueprint.vango.dev/errors/B041",
	},
	"B042": {
		Category: CategoryHost,
		Message:  "Unknown signal",
		Detail:   "The class does not expose a signal with this name.",
		DocURL:   "https://blueprint.vango.dev/errors/B042",
	},
	"B043": {
		Category: CategoryHost,
		Message:  "Object destroyed",
		Detail:   "The host object has already been destroyed.",
		DocURL:   "https://blueprint.vango.dev/errors/B043",
	},

	// ============================================
	// Protocol Errors (B050-B059)
	// ============================================

	"B050": {
		Category: CategoryProtocol,
		Message:  "Remote host protocol error",
		Detail:   "The remote host connection failed or sent an unexpected frame.",
		DocURL:   "https://blueprint.vango.dev/errors/B050",
	},

	// ============================================
	// Document Errors (B060-B069)
	// ============================================

	"B060": {
		Category: CategoryDocument,
		Message:  "Invalid blueprint document",
		Detail:   "The document could not be parsed into a blueprint tree.",
		DocURL:   "https://blueprint.vango.dev/errors/B060",
	},
	"B061": {
		Category: CategoryDocument,
		Message:  "Unknown plugin",
		Detail:   "The document references a plugin that is not registered.",
		DocURL:   "https://blueprint.vango.dev/errors/B061",
	},
	"B062": {
		Category: CategoryDocument,
		Message:  "Unknown handler",
		Detail:   "The document binds an event to a handler that is not registered.",
		DocURL:   "https://blueprint.vango.dev/errors/B062",
	},

	// ============================================
	// Config Errors (B070-B079)
	// ============================================

	"B070": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration failed validation.",
		DocURL:   "https://blueprint.vango.dev/errors/B070",
	},
	"B071": {
		Category: CategoryConfig,
		Message:  "Configuration parse error",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://blueprint.vango.dev/errors/B071",
	},
}

// Sentinels for errors.Is matching. They must not be modified.
var (
	ErrInvalidClassName   = &Error{Code: "B001"}
	ErrDuplicateChildKey  = &Error{Code: "B002"}
	ErrInvalidPropertyKey = &Error{Code: "B003"}
	ErrInvalidChildKey    = &Error{Code: "B004"}
	ErrNilChild           = &Error{Code: "B005"}
	ErrInvalidPlugin      = &Error{Code: "B006"}

	ErrHostObjectCreation = &Error{Code: "B020"}
	ErrPropertyAssignment = &Error{Code: "B021"}
	ErrPluginMount        = &Error{Code: "B022"}
	ErrEventBind          = &Error{Code: "B023"}

	ErrStaleHandle = &Error{Code: "B030"}

	ErrUnknownClass    = &Error{Code: "B040"}
	ErrInvalidProperty = &Error{Code: "B041"}
	ErrUnknownSignal   = &Error{Code: "B042"}
	ErrDestroyedObject = &Error{Code: "B043"}
	ErrRemoteProtocol  = &Error{Code: "B050"}
	ErrDocument        = &Error{Code: "B060"}
	ErrUnknownPlugin   = &Error{Code: "B061"}
	ErrUnknownHandler  = &Error{Code: "B062"}
	ErrConfigInvalid   = &Error{Code: "B070"}
	ErrConfigParse     = &Error{Code: "B071"}
)

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
