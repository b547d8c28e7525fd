/*
Package registry defines the interfaces the Node Convergence Loop
(pkg/convergence) consumes from the external local application-execution
engine (spec.md §1 "DELIBERATELY OUT OF SCOPE", §6 "Local registry
interface required"). This core never implements App or Registry; it is
handed a concrete implementation at agent construction time.
*/
package registry

// App is a locally-running application instance, as the external
// registry represents it.
type App interface {
	// GetName returns the application's name, matching a task name.
	GetName() string
	// IsCloudApp reports whether this app originated from a cluster
	// task (vs. a locally-declared app the registry also tracks).
	IsCloudApp() bool
	// Equals performs the deep-equality check spec.md §4.7 step 4
	// relies on to decide whether a cloud app must be replaced.
	Equals(other App) bool
	// AsJSON serializes the app, omitting secrets when secureOmit is
	// true.
	AsJSON(secureOmit bool) ([]byte, error)
	// Dump returns a human-readable representation for logging.
	Dump() string
}

// Descriptor is the opaque, registry-understood application descriptor
// materialized from a task's AppTemplate plus an injected APP_INDEX
// environment variable (spec.md §4.7 step 4).
type Descriptor struct {
	Name     string
	Content  interface{}
	EnvExtra map[string]string
	// Metadata marks this descriptor as cloud-managed so the registry
	// can distinguish it from locally-defined apps (spec.md §6
	// "Task serialization").
	Metadata string
}

// CloudAppMarker is the Metadata value convergence stamps onto every
// materialized descriptor before handing it to the registry.
const CloudAppMarker = "cloud-app"

// Registry is the local application-execution engine's interface,
// consumed (never implemented) by pkg/convergence.
type Registry interface {
	// GetApps returns every application the registry currently knows
	// about, cloud-managed or not.
	GetApps() ([]App, error)
	// AddApp creates or replaces an application from descriptor.
	AddApp(descriptor Descriptor) error
	// RemoveApp removes the named application.
	RemoveApp(name string) error
	// ParseApp decodes a registry-specific JSON representation into an
	// App, for callers that need to inspect an existing app's shape.
	ParseApp(data []byte) (App, error)
}
