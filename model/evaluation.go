// Package model - channel evaluation and derivation structures mirroring the
// package-graph snapshot store.
package model

import "time"

// EvaluationState is the lifecycle state of a channel evaluation.
type EvaluationState string

// Evaluation lifecycle states. Only completed evaluations ever contribute
// candidate derivations.
const (
	EvalWaiting    EvaluationState = "waiting"
	EvalInProgress EvaluationState = "in_progress"
	EvalCompleted  EvaluationState = "completed"
	EvalFailed     EvaluationState = "failed"
	EvalCrashed    EvaluationState = "crashed"
	EvalTimedOut   EvaluationState = "timed_out"
)

// Evaluation is one timestamped materialization of a channel's package graph.
type Evaluation struct {
	Key           string          `json:"_key,omitempty"`
	ObjType       string          `json:"objtype,omitempty"`
	Channel       string          `json:"channel"`
	ChannelBranch string          `json:"channel_branch"`
	State         EvaluationState `json:"state"`
	CommitSha1    string          `json:"commit_sha1,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewEvaluation creates an Evaluation with default values.
func NewEvaluation(channel, branch string) *Evaluation {
	now := time.Now().UTC()
	return &Evaluation{
		ObjType:       "Evaluation",
		Channel:       channel,
		ChannelBranch: branch,
		State:         EvalWaiting,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Maintainer identifies a package maintainer. GithubID is the identifying
// key used for deduplication throughout the aggregator.
type Maintainer struct {
	GithubID int64  `json:"github_id"`
	Github   string `json:"github,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// DerivationMetadata is the optional meta block of a derivation.
type DerivationMetadata struct {
	Description string       `json:"description,omitempty"`
	Position    string       `json:"position,omitempty"`
	Maintainers []Maintainer `json:"maintainers,omitempty"`
}

// Derivation is one buildable unit of the package graph, produced by exactly
// one evaluation. Name encodes `base-version`.
type Derivation struct {
	Key           string              `json:"_key,omitempty"`
	ObjType       string              `json:"objtype,omitempty"`
	Attribute     string              `json:"attribute"`
	Name          string              `json:"name"`
	EvaluationKey string              `json:"evaluation_key"`
	System        string              `json:"system,omitempty"`
	Metadata      *DerivationMetadata `json:"metadata,omitempty"`
}

// NewDerivation creates a Derivation with default values.
func NewDerivation(attribute, name, evaluationKey string) *Derivation {
	return &Derivation{
		ObjType:       "Derivation",
		Attribute:     attribute,
		Name:          name,
		EvaluationKey: evaluationKey,
	}
}
