package consts

import "time"

// DefaultURI is shown in place of an empty protocol URI. It is preview-only
// and never drives any other decision.
const DefaultURI = "https://example.com/your-protocol"

// Step defines the position of an authoring session in the wizard flow.
type Step string

const (
	StepPublished Step = "published" // visibility flag
	StepURI       Step = "uri"       // protocol identifier
	StepTypes     Step = "types"     // type definitions
	StepStructure Step = "structure" // action rules
	StepComplete  Step = "complete"
	StepAbandoned Step = "abandoned"
)

// Flow events
const (
	EventNext    = "next"
	EventBack    = "back"
	EventAbandon = "abandon"
)

// Server defaults
const (
	DefaultAddr        = "127.0.0.1:8787"
	DefaultMetricsPath = "/metrics"
	DefaultReadTimeout = 10 * time.Second
	DefaultConfigFile  = "protoscribe.yaml"
	MaxRequestBytes    = 1 << 20
)

// Header carrying the content identifier of a rendered document.
const HeaderDescriptorCID = "X-Descriptor-CID"

// Personal.AI order the ending
