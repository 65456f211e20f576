// pkg/registry/schema.go
package registry

// Implementation states an activity can be in. Only implemented activities
// may be started by the worker manager.
const (
	StatusImplemented = "implemented"
	StatusPlanned     = "planned"
)

// ActivityRegistry is the JSON document listing every Zeebe task this
// deployment knows about.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one task type: its JSON schemas, the error codes it may
// raise and its job timeout as a Go duration string.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// Implemented reports whether a worker for the activity ships in this build.
func (a Activity) Implemented() bool {
	return a.ImplementationStatus == StatusImplemented
}
