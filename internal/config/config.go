// Package config loads and validates the engine's runtime configuration
// (spec §6): classification thresholds, citation boost, consensus bounds,
// role timeouts, refinement thresholds, review-queue priority/SLA rules,
// embedding dimension/metric, and retry policy.
package config

import "time"

// Config is the umbrella configuration object threaded through every
// internal package. Built by Load and never mutated after construction.
type Config struct {
	Thresholds   ThresholdsConfig   `yaml:"thresholds"`
	CitationBoost CitationBoostConfig `yaml:"citation_boost"`
	Consensus    ConsensusConfig    `yaml:"consensus"`
	RoleTimeouts RoleTimeoutsConfig `yaml:"role_timeouts"`
	Refinement   RefinementConfig   `yaml:"refinement_thresholds"`
	Priority     PriorityConfig     `yaml:"priority"`
	SLAHours     SLAHoursConfig     `yaml:"sla_hours"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Retry        RetryConfig        `yaml:"retry"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
}

// ThresholdsConfig holds the HIGH/MEDIUM/LOW similarity boundaries used by
// the matcher's classify operation (spec §4.2). Exposed (not buried) so
// tests can probe the boundary behaviour in spec §8 B1.
type ThresholdsConfig struct {
	High   float64 `yaml:"high" validate:"gt=0,lte=1"`
	Medium float64 `yaml:"medium" validate:"gt=0,lte=1"`
	Low    float64 `yaml:"low" validate:"gt=0,lte=1"`
}

// CitationBoostConfig controls the matcher's citation-graph boost (spec §4.2).
type CitationBoostConfig struct {
	PerHit float64 `yaml:"per_hit" validate:"gte=0"`
	Cap    float64 `yaml:"cap" validate:"gte=0"`
}

// ConsensusConfig controls the Maker/Hater/Arbiter consensus workflow
// (spec §4.5).
type ConsensusConfig struct {
	MaxRounds                  int     `yaml:"max_consensus_rounds" validate:"gte=1"`
	ArbiterConfidenceThreshold float64 `yaml:"arbiter_confidence_threshold" validate:"gt=0,lte=1"`
}

// RoleTimeoutsConfig bounds each agent role invocation (spec §4.5).
type RoleTimeoutsConfig struct {
	Evaluator  time.Duration `yaml:"evaluator"`
	Maker      time.Duration `yaml:"maker"`
	Hater      time.Duration `yaml:"hater"`
	Arbiter    time.Duration `yaml:"arbiter"`
	Synthesiser time.Duration `yaml:"synthesiser"`
}

// RefinementConfig controls when the concept refinement service triggers
// (spec §4.7).
type RefinementConfig struct {
	MentionCountTriggers []int         `yaml:"mention_count_triggers"`
	MaxAttempts          int           `yaml:"max_attempts" validate:"gte=1"`
	InitialBackoff       time.Duration `yaml:"initial_backoff"`
}

// PriorityConfig controls the review queue's priority scoring (spec §4.6).
type PriorityConfig struct {
	CriticalDomains  []string `yaml:"critical_domains"`
	AgeEscalationDays int     `yaml:"age_escalation_days" validate:"gte=1"`
}

// SLAHoursConfig maps a priority band to an SLA duration (spec §4.6).
type SLAHoursConfig struct {
	P1To3 int `yaml:"p1_3"`
	P4To6 int `yaml:"p4_6"`
	P7To10 int `yaml:"p7_10"`
}

// Hours returns the SLA duration, in hours, for the given priority (1-10).
func (s SLAHoursConfig) Hours(priority int) int {
	switch {
	case priority <= 3:
		return s.P1To3
	case priority <= 6:
		return s.P4To6
	default:
		return s.P7To10
	}
}

// EmbeddingConfig describes the embedding contract (spec §4.1, §6).
type EmbeddingConfig struct {
	Dim    int    `yaml:"dim" validate:"gt=0"`
	Metric string `yaml:"metric" validate:"oneof=cosine"`
}

// RetryConfig controls the exponential-backoff-with-jitter retry policy
// (spec §7) used by internal/resilience.
type RetryConfig struct {
	Max            int           `yaml:"max" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initial_backoff_ms"`
	Jitter         time.Duration `yaml:"jitter_ms"`
}

// WorkflowConfig controls the state-machine's stuck-item handling (spec §4.3).
type WorkflowConfig struct {
	StuckTimeout time.Duration `yaml:"stuck_timeout"`
}

// DefaultConfig returns the built-in defaults named throughout spec §4.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdsConfig{High: 0.95, Medium: 0.80, Low: 0.50},
		CitationBoost: CitationBoostConfig{PerHit: 0.03, Cap: 0.20},
		Consensus: ConsensusConfig{MaxRounds: 3, ArbiterConfidenceThreshold: 0.70},
		RoleTimeouts: RoleTimeoutsConfig{
			Evaluator:   30 * time.Second,
			Maker:       30 * time.Second,
			Hater:       30 * time.Second,
			Arbiter:     30 * time.Second,
			Synthesiser: 30 * time.Second,
		},
		Refinement: RefinementConfig{
			MentionCountTriggers: []int{5, 10, 25, 50},
			MaxAttempts:          3,
			InitialBackoff:       time.Second,
		},
		Priority: PriorityConfig{
			CriticalDomains:   nil,
			AgeEscalationDays: 7,
		},
		SLAHours: SLAHoursConfig{P1To3: 24, P4To6: 24 * 7, P7To10: 24 * 30},
		Embedding: EmbeddingConfig{Dim: 1536, Metric: "cosine"},
		Retry: RetryConfig{
			Max:            3,
			InitialBackoff: 200 * time.Millisecond,
			Jitter:         100 * time.Millisecond,
		},
		Workflow: WorkflowConfig{StuckTimeout: 60 * time.Minute},
	}
}
