package perfgraph

// Version information for the perfgraph toolkit
const (
	// Version is the current toolkit version
	Version = "development"

	// APIVersion is the current API version
	APIVersion = "v1alpha1"

	// BuildDate is set during build time
	BuildDate = "development"

	// GitCommit is set during build time
	GitCommit = "unknown"
)
