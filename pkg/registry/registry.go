// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// LoadRegistry reads and validates the activity registry at path.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity registry: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse activity registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate rejects activities without a task type and duplicate task types.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]string, len(r.Activities))
	for _, a := range r.Activities {
		if strings.TrimSpace(a.TaskType) == "" {
			return fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if prev, ok := seen[a.TaskType]; ok {
			return fmt.Errorf("taskType %q registered twice (%s, %s)", a.TaskType, prev, a.ID)
		}
		seen[a.TaskType] = a.ID
	}
	return nil
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Unregistered returns the task types that have no implemented activity,
// sorted.
func (r *ActivityRegistry) Unregistered(taskTypes []string) []string {
	var missing []string
	for _, tt := range taskTypes {
		a, ok := r.Find(tt)
		if !ok || !a.Implemented() {
			missing = append(missing, tt)
		}
	}
	sort.Strings(missing)
	return missing
}

// CheckSchemas compiles every input and output schema so a malformed entry
// fails at review time instead of at job time.
func (r *ActivityRegistry) CheckSchemas() error {
	for _, a := range r.Activities {
		for kind, schema := range map[string]map[string]interface{}{"inputSchema": a.InputSchema, "outputSchema": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("activity %s: invalid %s: %w", a.ID, kind, err)
			}
		}
	}
	return nil
}

// SetStatus changes the implementation status of the activity with id.
func (r *ActivityRegistry) SetStatus(id, status string) error {
	if status != StatusImplemented && status != StatusPlanned {
		return fmt.Errorf("status must be %q or %q, got %q", StatusImplemented, StatusPlanned, status)
	}
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			r.Activities[i].ImplementationStatus = status
			return nil
		}
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

// Save writes the registry as indented JSON, stamping lastUpdated.
func (r *ActivityRegistry) Save(path string, now time.Time) error {
	r.LastUpdated = now.Format("2006-01-02")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
