package stack

import "time"

// Capability is a permission acknowledgment the backend requires before it
// provisions privilege-bearing resources.
type Capability string

const (
	CapabilityIAM        Capability = "CAPABILITY_IAM"
	CapabilityNamedIAM   Capability = "CAPABILITY_NAMED_IAM"
	CapabilityAutoExpand Capability = "CAPABILITY_AUTO_EXPAND"
)

// RequiredCapabilities returns the capabilities requested for every
// submission.
func RequiredCapabilities() []Capability {
	return []Capability{CapabilityIAM, CapabilityNamedIAM, CapabilityAutoExpand}
}

// FailurePolicy is what the backend does when provisioning partially fails.
type FailurePolicy string

// FailurePolicyRollback deletes everything created by a failed attempt.
// It is the only supported policy.
const FailurePolicyRollback FailurePolicy = "ROLLBACK"

// DefaultEventLimit is the number of events returned when no positive limit
// is given.
const DefaultEventLimit = 10

// Parameter is one template parameter value.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tag is one provenance tag.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ResourceRecord is the backend's tracked state of one declared resource.
// PhysicalID is empty until the resource has been provisioned.
type ResourceRecord struct {
	LogicalID  string `json:"logical_id"`
	PhysicalID string `json:"physical_id,omitempty"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// Event is one lifecycle event.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	ResourceType string    `json:"resource_type"`
	LogicalID    string    `json:"logical_id"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason,omitempty"`
}

// Snapshot is a point-in-time read of a deployment.
type Snapshot struct {
	Name      string            `json:"stack_name"`
	ID        string            `json:"stack_id,omitempty"`
	State     State             `json:"state"`
	Reason    string            `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"creation_time"`
	UpdatedAt *time.Time        `json:"last_updated,omitempty"`
	Resources []ResourceRecord  `json:"resources"`
	Outputs   map[string]string `json:"outputs"`
}

// DeployInput is a submission request.
type DeployInput struct {
	Name       string
	Template   string
	Parameters map[string]string
}

// DeployResult is the acknowledgment of a submission.
type DeployResult struct {
	Name    string `json:"stack_name"`
	ID      string `json:"stack_id"`
	State   State  `json:"state"`
	Message string `json:"message"`
}

// RemoteValidation is the backend's verdict on a template.
type RemoteValidation struct {
	Valid        bool     `json:"valid"`
	Description  string   `json:"description,omitempty"`
	Parameters   []string `json:"parameters,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	// CapabilitiesReason names the resources that require Capabilities.
	CapabilitiesReason string `json:"capabilities_reason,omitempty"`
	Message            string `json:"message"`
	Error              string `json:"error,omitempty"`
}
