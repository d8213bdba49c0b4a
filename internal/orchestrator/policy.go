package orchestrator

import "time"

// Tunable policy constants. These values are behavioral compatibility points,
// not principled derivations; change them together with their tests.
const (
	// Minimum classify-intent confidence to accept a section target.
	intentConfidenceThreshold = 0.7

	// Retry budgets per phase, scaled by whether the phase is required.
	requiredPhaseRetries = 3
	optionalPhaseRetries = 1

	// Exponential backoff for rate-limited calls.
	retryBackoffBase = 2 * time.Second
	retryBackoffMax  = 30 * time.Second

	// Delay before the single retry of an empty-but-recoverable response.
	emptyOutputRetryDelay = 2 * time.Second

	// Throughput throttle between sequential phases.
	interPhaseDelay = 1500 * time.Millisecond

	// Sparse-output second retry pass: this many failed optional phases plus
	// fewer than minSectionCount sections triggers one more pass.
	sparseFailureThreshold = 3
	minSectionCount        = 4

	// Text-content section matching is only allowed on small documents.
	smallDocumentSections = 10

	// Neighbor style hints passed to a section edit.
	maxNeighborContext = 4

	// A build with no forward progress for this long is force-reset.
	watchdogTimeout = 60 * time.Second
)

// Page-level keywords that push an untargeted prompt into full-page mode.
var fullPageKeywords = []string{
	"landing page", "whole page", "full page", "entire page", "website",
	"homepage", "home page", "web page", "create a page", "build a page",
	"redesign the page", "from scratch",
}
