// Package naming provides consistent names for objects this system creates
// outside the deployment backend: staged template objects and agent runtime
// sessions.
//
// Staged template keys follow templates/{stack}/{UTC timestamp}.template so
// repeated submissions of the same stack never overwrite each other.
package naming
