// Package agentroles provides the structured-generation role contracts used
// by the agent workflow (spec §4.5 Evaluator/Maker/Hater/Arbiter, §4.7
// Synthesiser). Each role is a black-box structured generator: a prompt in,
// a schema-validated JSON decision out.
package agentroles

// Role names a structured-generation role, dispatched to the configured
// backend by tag.
type Role string

const (
	RoleEvaluator   Role = "evaluator"
	RoleMaker       Role = "maker"
	RoleHater       Role = "hater"
	RoleArbiter     Role = "arbiter"
	RoleSynthesiser Role = "synthesiser"
)

// EvaluatorDecision is the Evaluator role's output decision.
type EvaluatorDecision string

const (
	EvaluatorApprove  EvaluatorDecision = "APPROVE"
	EvaluatorReject   EvaluatorDecision = "REJECT"
	EvaluatorEscalate EvaluatorDecision = "ESCALATE"
)

// EvaluatorInput is passed to the Evaluator for a MEDIUM-band match.
type EvaluatorInput struct {
	MentionStatement   string
	CandidateStatement string
	SimilarityScore    float64
}

// EvaluatorOutput is the Evaluator's structured decision.
type EvaluatorOutput struct {
	Decision   EvaluatorDecision `json:"decision"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
	KeyFactors []string          `json:"key_factors"`
}

// ArgumentInput is passed to both Maker and Hater; they share an input
// shape and differ only in which side of the argument they are told to
// take (spec §4.5).
type ArgumentInput struct {
	MentionStatement   string
	CandidateStatement string
}

// Argument is one claim/evidence/strength tuple in a Maker or Hater output.
type Argument struct {
	Claim    string  `json:"claim"`
	Evidence string  `json:"evidence"`
	Strength float64 `json:"strength"`
}

// ArgumentOutput is the Maker or Hater role's structured output: 3-5
// arguments plus an overall confidence and the index of the strongest one.
type ArgumentOutput struct {
	Arguments      []Argument `json:"arguments"`
	Confidence     float64    `json:"confidence"`
	StrongestIndex int        `json:"strongest_index"`
}

// ArbiterDecision is the Arbiter role's output decision.
type ArbiterDecision string

const (
	ArbiterLink      ArbiterDecision = "LINK"
	ArbiterCreateNew ArbiterDecision = "CREATE_NEW"
	ArbiterRetry     ArbiterDecision = "RETRY"
)

// ArbiterInput carries both sides of the argument plus the round bookkeeping
// the Arbiter needs to decide whether RETRY is still available to it.
type ArbiterInput struct {
	Maker      ArgumentOutput
	Hater      ArgumentOutput
	Round      int
	MaxRounds  int
	FinalRound bool
}

// ArbiterOutput is the Arbiter's structured decision.
type ArbiterOutput struct {
	Decision       ArbiterDecision `json:"decision"`
	Confidence     float64         `json:"confidence"`
	Reasoning      string          `json:"reasoning"`
	MakerWeight    float64         `json:"maker_weight"`
	HaterWeight    float64         `json:"hater_weight"`
	DecisiveFactor string          `json:"decisive_factor"`
}

// SynthesisInput carries the concept's current canonical statement and the
// statement of every linked mention feeding a concept refinement (spec
// §4.7). Mention metadata and embeddings are not included.
type SynthesisInput struct {
	ConceptStatement string
	MentionStatements []string
}

// SynthesisOutput is the Synthesiser's structured output: a canonical
// statement, union metadata, and any conflicts it noticed across mentions.
type SynthesisOutput struct {
	CanonicalStatement string         `json:"canonical_statement"`
	Metadata           map[string]any `json:"metadata"`
	ConflictMarkers    []string       `json:"conflict_markers"`
}
