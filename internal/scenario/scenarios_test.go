// Package scenario is the cross-package acceptance suite for the matcher
// and agent-workflow decision logic that spec §8's scenarios (S1-S7),
// invariants (I1-I9), and boundary cases (B1-B4) describe. It runs entirely
// against in-memory fakes (vectorindex.MemoryIndex, fakeLookup,
// fakeBlacklist, fakeRoleGenerator) so it exercises the same classification
// and consensus code paths internal/engine wires into a real pipeline,
// without requiring a live Postgres instance.
//
// Coverage this suite does NOT attempt: the ent-backed persistence
// invariants (I1 exactly-one INSTANCE_OF edge, I2 mention_count/paper_count
// bookkeeping, I8 concept version monotonicity) and the full engine-level
// pipeline integration. Those require a running database; see
// internal/store's testcontainers-gated integration test and DESIGN.md's
// "Scenario and integration test coverage" entry for why they are not
// faked here. The idempotency half of I1/L3 (no double-linking on retry) is
// covered directly in internal/autolinker/autolinker_test.go and
// internal/reviewqueue/resolve_guard_test.go, against the exact code that
// used to get it wrong.
package scenario_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/researchgraph/canonmatch/internal/agentroles"
	"github.com/researchgraph/canonmatch/internal/agentworkflow"
	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/matcher"
	"github.com/researchgraph/canonmatch/internal/refinement"
	"github.com/researchgraph/canonmatch/internal/reviewqueue"
	"github.com/researchgraph/canonmatch/internal/vectorindex"
)

// unitVector builds a unit-length 3D vector with the given cosine
// similarity against [1,0,0], so FindCandidates' reported RawScore is exact
// rather than approximate.
func unitVector(cosineToUnitX float64) []float64 {
	remainder := 1 - cosineToUnitX*cosineToUnitX
	if remainder < 0 {
		remainder = 0
	}
	return []float64{cosineToUnitX, remainder, 0}
}

var _ = Describe("Concept Matcher classification (spec §4.2, §8 B1)", func() {
	var m *matcher.Matcher

	BeforeEach(func() {
		cfg := *config.DefaultConfig()
		m = matcher.New(vectorindex.NewMemoryIndex(), &fakeLookup{}, &fakeBlacklist{}, cfg)
	})

	It("B1: classifies 0.9499 as MEDIUM and 0.9500 as HIGH", func() {
		Expect(m.Classify(0.9499)).To(Equal(matcher.BandMedium))
		Expect(m.Classify(0.9500)).To(Equal(matcher.BandHigh))
	})

	It("S3: classifies 0.87 as MEDIUM", func() {
		Expect(m.Classify(0.87)).To(Equal(matcher.BandMedium))
	})

	It("S4: classifies 0.65 as LOW", func() {
		Expect(m.Classify(0.65)).To(Equal(matcher.BandLow))
	})
})

var _ = Describe("find_candidates over an empty and populated index (spec §8 S1, S2, S7, I7)", func() {
	It("S1: returns no candidates against an empty store", func() {
		cfg := *config.DefaultConfig()
		m := matcher.New(vectorindex.NewMemoryIndex(), &fakeLookup{}, &fakeBlacklist{}, cfg)

		candidates, err := m.FindCandidates(context.Background(), "m1", matcher.Mention{Embedding: []float64{1, 0, 0}, Domain: "nlp"}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(candidates).To(BeEmpty())
	})

	It("S2: ranks an existing concept at similarity 0.96 as HIGH", func() {
		cfg := *config.DefaultConfig()
		idx := vectorindex.NewMemoryIndex()
		Expect(idx.Upsert(context.Background(), "c1", unitVector(0.96))).To(Succeed())

		lookup := &fakeLookup{byID: map[string]matcher.ConceptInfo{
			"c1": {Domain: "nlp", MentionCount: 1},
		}}
		m := matcher.New(idx, lookup, &fakeBlacklist{}, cfg)

		candidates, err := m.FindCandidates(context.Background(), "m2", matcher.Mention{Embedding: []float64{1, 0, 0}, Domain: "nlp"}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(candidates).To(HaveLen(1))
		Expect(candidates[0].ConceptID).To(Equal("c1"))
		Expect(candidates[0].Band).To(Equal(matcher.BandHigh))
	})

	It("S7/I7: filters out a blacklisted concept and leaves the legitimate candidate untouched", func() {
		cfg := *config.DefaultConfig()
		idx := vectorindex.NewMemoryIndex()
		Expect(idx.Upsert(context.Background(), "c1", unitVector(0.96))).To(Succeed())

		lookup := &fakeLookup{byID: map[string]matcher.ConceptInfo{
			"c1": {Domain: "nlp", MentionCount: 1},
		}}
		blacklist := &fakeBlacklist{blocked: map[string]bool{"m7|c1": true}}
		m := matcher.New(idx, lookup, blacklist, cfg)

		// m7's embedding would otherwise rank c1 first, but the pair is
		// blacklisted, so find_candidates must filter it out entirely.
		blocked, err := m.FindCandidates(context.Background(), "m7", matcher.Mention{Embedding: []float64{1, 0, 0}, Domain: "nlp"}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(blocked).To(BeEmpty())

		// m8, not blacklisted against c1, still finds it.
		allowed, err := m.FindCandidates(context.Background(), "m8", matcher.Mention{Embedding: []float64{1, 0, 0}, Domain: "nlp"}, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(allowed).To(HaveLen(1))
		Expect(allowed[0].ConceptID).To(Equal("c1"))
	})
})

var _ = Describe("Agent workflow routing (spec §4.5, §8 S3, S4, B2)", func() {
	var candidate matcher.Candidate
	var checkpoints *fakeCheckpointer

	BeforeEach(func() {
		candidate = matcher.Candidate{ConceptID: "c1", BoostedScore: 0.87, Band: matcher.BandMedium}
		checkpoints = &fakeCheckpointer{}
	})

	It("S3: a MEDIUM-band APPROVE links directly with MEDIUM confidence, no consensus", func() {
		roles := &fakeRoleGenerator{evaluatorDecision: agentroles.EvaluatorApprove}
		wf := agentworkflow.New(roles, checkpoints, config.DefaultConfig().Consensus, config.DefaultConfig().RoleTimeouts)

		outcome, err := wf.Run(context.Background(), "trace-1", agentworkflow.Input{}, matcher.BandMedium, candidate)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Kind).To(Equal(agentworkflow.OutcomeLink))
		Expect(outcome.MatchConfidence).To(Equal("MEDIUM"))
		Expect(outcome.FromConsensus).To(BeFalse())
		Expect(checkpoints.calls).To(Equal(1))
	})

	It("S4/B2: a LOW-band match exhausting 3 consensus rounds force-links on the final round regardless of confidence", func() {
		candidate.Band = matcher.BandLow
		roles := &fakeRoleGenerator{
			arbiterDecisions: []agentroles.ArbiterDecision{
				agentroles.ArbiterRetry,
				agentroles.ArbiterRetry,
				agentroles.ArbiterRetry, // final round: RETRY is not available, forced to LINK
			},
			arbiterConfidence: 0.58,
		}
		wf := agentworkflow.New(roles, checkpoints, config.DefaultConfig().Consensus, config.DefaultConfig().RoleTimeouts)

		outcome, err := wf.Run(context.Background(), "trace-2", agentworkflow.Input{}, matcher.BandLow, candidate)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Kind).To(Equal(agentworkflow.OutcomeLink))
		Expect(outcome.MatchConfidence).To(Equal("LOW"))
		Expect(outcome.FromConsensus).To(BeTrue())
		Expect(outcome.Artefacts["rounds"]).To(HaveLen(3))
		Expect(checkpoints.calls).To(Equal(3))
	})

	It("B2: forces LINK at the final round even when the Arbiter's own confidence sits at exactly 0.50", func() {
		candidate.Band = matcher.BandLow
		roles := &fakeRoleGenerator{
			arbiterDecisions: []agentroles.ArbiterDecision{
				agentroles.ArbiterRetry,
				agentroles.ArbiterRetry,
				agentroles.ArbiterRetry,
			},
			arbiterConfidence: 0.50,
		}
		wf := agentworkflow.New(roles, checkpoints, config.DefaultConfig().Consensus, config.DefaultConfig().RoleTimeouts)

		outcome, err := wf.Run(context.Background(), "trace-3", agentworkflow.Input{}, matcher.BandLow, candidate)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Kind).To(Equal(agentworkflow.OutcomeLink))
	})
})

var _ = Describe("Refinement trigger (spec §4.7, §8 S5, S6)", func() {
	triggers := config.DefaultConfig().Refinement.MentionCountTriggers

	It("S5: triggers exactly once at mention_count=5 and does not re-trigger reaching 6", func() {
		Expect(refinement.ShouldRefine(triggers, 5, 0, false)).To(BeTrue())
		// last_refined_at_count is now 5; a later submission reaching 6
		// must not re-trigger since 6 is not a configured threshold.
		Expect(refinement.ShouldRefine(triggers, 6, 5, false)).To(BeFalse())
	})

	It("S6: a human-edited concept never auto-refines, even at a trigger count", func() {
		Expect(refinement.ShouldRefine(triggers, 10, 5, true)).To(BeFalse())
	})
})

var _ = Describe("Review queue priority and SLA (spec §4.6, §8 B3, B4)", func() {
	It("B3: priority score stays within [1, 10] at both extremes", func() {
		cfg := config.PriorityConfig{AgeEscalationDays: 7, CriticalDomains: []string{"nlp"}}
		now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

		low := reviewqueue.Score(cfg, 1.0, 11, "nlp", now.AddDate(0, 0, -30), now)
		Expect(low).To(BeNumerically(">=", 1))

		high := reviewqueue.Score(cfg, 0.0, 0, "vision", now, now)
		Expect(high).To(BeNumerically("<=", 10))
	})

	It("B4: a priority-5 review created at T breaches its SLA at T+168h and escalates to priority 2", func() {
		cfg := config.DefaultConfig().SLAHours
		created := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

		deadline := reviewqueue.SLADeadline(cfg, 5, created)
		Expect(deadline).To(Equal(created.Add(168 * time.Hour)))

		Expect(reviewqueue.EscalatePriority(5)).To(Equal(2))
	})
})
