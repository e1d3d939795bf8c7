// Package benchmarks provides timing estimates for stack deployments.
package benchmarks

import (
	"time"

	"github.com/imamik/stackpilot/internal/stack"
)

// DefaultResourceSeconds is assumed for resource types without a benchmark.
const DefaultResourceSeconds = 30

// DefaultTimings are typical create durations per resource type (seconds).
var DefaultTimings = map[string]int{
	"AWS::S3::Bucket":                5,
	"AWS::SQS::Queue":                5,
	"AWS::SNS::Topic":                5,
	"AWS::Logs::LogGroup":            5,
	"AWS::IAM::Role":                 20,
	"AWS::IAM::Policy":               20,
	"AWS::DynamoDB::Table":           20,
	"AWS::Lambda::Function":          15,
	"AWS::EC2::VPC":                  15,
	"AWS::EC2::Subnet":               10,
	"AWS::EC2::SecurityGroup":        10,
	"AWS::EC2::InternetGateway":      15,
	"AWS::EC2::NatGateway":           120,
	"AWS::EC2::Instance":             60,
	"AWS::ECS::Service":              180,
	"AWS::ElastiCache::CacheCluster": 480,
	"AWS::RDS::DBInstance":           600,
	"AWS::EKS::Cluster":              720,
	"AWS::CloudFront::Distribution":  900,
}

// ExpectedDuration returns the benchmark duration for a resource type.
func ExpectedDuration(resourceType string) time.Duration {
	secs, ok := DefaultTimings[resourceType]
	if !ok {
		secs = DefaultResourceSeconds
	}
	return time.Duration(secs) * time.Second
}

// EstimateRemaining estimates the time until all resources settle, given
// the time elapsed since the deployment started.
func EstimateRemaining(resources []stack.ResourceRecord, elapsed time.Duration) time.Duration {
	return EstimateRemainingWithScale(resources, elapsed, PerformanceScale(resources, elapsed))
}

// EstimateRemainingWithScale estimates the remaining time with a fixed
// performance scale. Resources are created in parallel where dependencies
// allow, so the slowest outstanding resource dominates.
func EstimateRemainingWithScale(resources []stack.ResourceRecord, elapsed time.Duration, scale float64) time.Duration {
	var slowest time.Duration
	for _, r := range resources {
		if settled(r) {
			continue
		}
		if d := ExpectedDuration(r.Type); d > slowest {
			slowest = d
		}
	}

	remaining := time.Duration(float64(slowest)*scale) - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PerformanceScale derives a speed multiplier from how long the settled
// resources took compared to their benchmarks.
// Example: slowest settled resource expected 1m, 1m30s elapsed => scale=1.5.
func PerformanceScale(resources []stack.ResourceRecord, elapsed time.Duration) float64 {
	var expected time.Duration
	for _, r := range resources {
		if !settled(r) {
			continue
		}
		if d := ExpectedDuration(r.Type); d > expected {
			expected = d
		}
	}

	if expected == 0 || elapsed == 0 {
		return 1.0
	}

	scale := float64(elapsed) / float64(expected)
	if scale < 0.6 {
		return 0.6
	}
	if scale > 3.0 {
		return 3.0
	}
	return scale
}

// TotalEstimate returns the estimated duration of a fresh deployment of the
// given resource types.
func TotalEstimate(resourceTypes []string) time.Duration {
	var total time.Duration
	for _, t := range resourceTypes {
		if d := ExpectedDuration(t); d > total {
			total = d
		}
	}
	return total
}

func settled(r stack.ResourceRecord) bool {
	return stack.State(r.Status).IsTerminal()
}
