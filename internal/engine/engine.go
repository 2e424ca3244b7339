// Package engine is the composition root that wires the matcher,
// auto-linker, agent workflow, review queue, refinement service, checkpoint
// store, blacklist, and observability publisher into the operations spec §6
// names: submit_mention, reprocess, rollback, blacklist, and resolve.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	"github.com/researchgraph/canonmatch/ent/schema"
	"github.com/researchgraph/canonmatch/internal/agentworkflow"
	"github.com/researchgraph/canonmatch/internal/alerting"
	"github.com/researchgraph/canonmatch/internal/autolinker"
	"github.com/researchgraph/canonmatch/internal/blacklist"
	"github.com/researchgraph/canonmatch/internal/checkpoint"
	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/embedding"
	"github.com/researchgraph/canonmatch/internal/matcher"
	"github.com/researchgraph/canonmatch/internal/observability"
	"github.com/researchgraph/canonmatch/internal/refinement"
	"github.com/researchgraph/canonmatch/internal/reviewqueue"
	"github.com/researchgraph/canonmatch/internal/vectorindex"
	"github.com/researchgraph/canonmatch/internal/workflow"
)

var (
	ErrEmptyStatement = errors.New("engine: mention statement is empty")
	ErrEmptyPaperID   = errors.New("engine: mention paper id is empty")
	ErrEmptyDomain    = errors.New("engine: mention domain is empty")
)

// Engine ties every internal package together behind the operations
// described in spec §6.
type Engine struct {
	client *ent.Client

	embedder      embedding.Provider
	matcher       *matcher.Matcher
	linker        *autolinker.Linker
	agentWorkflow *agentworkflow.Workflow
	reviews       *reviewqueue.Store
	refiner       *refinement.Service
	checkpoints   *checkpoint.Store
	blacklists    *blacklist.Store
	events        *observability.Publisher
	alerts        *alerting.Service

	cfg    *config.Config
	logger *slog.Logger
}

// Deps bundles every collaborator New needs; all fields are required except
// Logger (defaults to slog.Default()).
type Deps struct {
	Client        *ent.Client
	VectorIndex   vectorindex.Index
	Blacklists    *blacklist.Store
	AgentWorkflow *agentworkflow.Workflow
	Reviews       *reviewqueue.Store
	Refiner       *refinement.Service
	Checkpoints   *checkpoint.Store
	Events        *observability.Publisher
	Alerts        *alerting.Service
	Embedder      embedding.Provider
	Config        *config.Config
	Logger        *slog.Logger
}

// New builds an Engine. Unlike most of this package's collaborators, the
// Matcher and ConceptLookup are assembled here (rather than passed in)
// because this package owns the lone ent-backed ConceptLookup
// implementation (internal/engine/conceptlookup.go).
func New(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := matcher.New(d.VectorIndex, newConceptLookup(d.Client), d.Blacklists, *d.Config)
	return &Engine{
		client:        d.Client,
		embedder:      d.Embedder,
		matcher:       m,
		linker:        autolinker.New(d.Client),
		agentWorkflow: d.AgentWorkflow,
		reviews:       d.Reviews,
		refiner:       d.Refiner,
		checkpoints:   d.Checkpoints,
		blacklists:    d.Blacklists,
		events:        d.Events,
		alerts:        d.Alerts,
		cfg:           d.Config,
		logger:        logger,
	}
}

// MentionInput is the submission shape for submit_mention (spec §3/§6): the
// caller-supplied half of a ProblemMention, before embedding or matching.
type MentionInput struct {
	Statement            string
	PaperID              string
	SectionLabel         *string
	SourceText           *string
	Domain               string
	Assumptions          []schema.Assumption
	Constraints          []schema.Constraint
	Datasets             []schema.Dataset
	Metrics              []schema.Metric
	Baselines            []schema.Baseline
	ExtractorVersion     string
	ExtractionModelID    string
	ExtractionConfidence float64
}

func (in MentionInput) validate() error {
	if in.Statement == "" {
		return ErrEmptyStatement
	}
	if in.PaperID == "" {
		return ErrEmptyPaperID
	}
	if in.Domain == "" {
		return ErrEmptyDomain
	}
	return nil
}

// SubmitMention assigns a trace id and persists a ProblemMention plus its
// EXTRACTED WorkItem (spec §6: "submit_mention(mention) → trace id").
// Input validation failures reject the submission immediately (spec §7);
// everything past that point runs asynchronously via ProcessWorkItem, which
// a poller (cmd/canonmatch-engine) drives for every EXTRACTED work item.
func (e *Engine) SubmitMention(ctx context.Context, in MentionInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	mentionID := uuid.NewString()
	traceID := newTraceID("submit_mention")
	workItemID := uuid.NewString()
	now := time.Now().UTC()

	err := e.client.Mention.Create().
		SetID(mentionID).
		SetStatement(in.Statement).
		SetPaperID(in.PaperID).
		SetNillableSectionLabel(in.SectionLabel).
		SetNillableSourceText(in.SourceText).
		SetDomain(in.Domain).
		SetAssumptions(in.Assumptions).
		SetConstraints(in.Constraints).
		SetDatasets(in.Datasets).
		SetMetrics(in.Metrics).
		SetBaselines(in.Baselines).
		SetExtractorVersion(in.ExtractorVersion).
		SetExtractionModelID(in.ExtractionModelID).
		SetExtractionConfidence(in.ExtractionConfidence).
		SetCurrentState(string(workflow.Extracted)).
		SetCreatedAt(now).
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("creating mention: %w", err)
	}

	err = e.client.WorkItem.Create().
		SetID(workItemID).
		SetTraceID(traceID).
		SetMentionID(mentionID).
		SetCurrentState(string(workflow.Extracted)).
		SetMaxRetries(e.cfg.Retry.Max).
		SetCreatedAt(now).
		SetUpdatedAt(now).
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("creating work item for mention %s: %w", mentionID, err)
	}

	return traceID, nil
}

// newTraceID builds a trace id in spec §3's
// "{UTC timestamp}-{short-id}-{operation}" format.
func newTraceID(operation string) string {
	return fmt.Sprintf("%s-%s-%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8], operation)
}
