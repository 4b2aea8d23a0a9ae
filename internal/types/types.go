// Package types provides the shared entity model for the bedrock decomposition
// tree. This package exists to break import cycles between the tree engine, the
// reasoning layer, and the TUI. Types here are foundational data structures with
// no complex dependencies.
package types

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// NODE MODEL
// =============================================================================

// NodeType classifies a vertex in the decomposition tree.
type NodeType string

const (
	// NodeTypeRoot is the single depth-0 node created per search.
	NodeTypeRoot NodeType = "ROOT"
	// NodeTypeComponent marks a design choice eligible for further decomposition.
	NodeTypeComponent NodeType = "COMPONENT"
	// NodeTypeFundamental marks a node the model asserts cannot be decomposed
	// further (an irreducible physical/mathematical/logical truth).
	NodeTypeFundamental NodeType = "FUNDAMENTAL"
)

// Source is a grounding citation (title + URI) attached to an AI response.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Node is a vertex in the decomposition tree. A parent owns its children
// exclusively; there is no shared ownership and no cycles.
//
// Nodes are treated as immutable values by the tree engine: mutation happens by
// rebuilding the path from the root to the changed node (see internal/tree).
type Node struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        NodeType `json:"type"`
	Level       int      `json:"level"`
	Children    []*Node  `json:"children,omitempty"`

	// Assumptions accumulates implicit conventions discovered for this node.
	// It only ever grows; expansions append, never replace.
	Assumptions []string `json:"assumptions,omitempty"`

	// Enrichment fields populated by decomposition/verification responses.
	Reasoning           string   `json:"reasoning,omitempty"`
	CoreConcept         string   `json:"core_concept,omitempty"`
	Analogy             string   `json:"analogy,omitempty"`
	WhyImportant        string   `json:"why_important,omitempty"`
	Sources             []Source `json:"sources,omitempty"`
	DetailedExplanation string   `json:"detailed_explanation,omitempty"`
	LearningQuestion    string   `json:"learning_question,omitempty"`

	// Transient UI state. Toggled by the controller, never sent to the model.
	IsExpanded           bool `json:"is_expanded,omitempty"`
	IsLoading            bool `json:"-"`
	IsElaborating        bool `json:"-"`
	IsGeneratingQuestion bool `json:"-"`
	IsMastered           bool `json:"is_mastered,omitempty"`
}

// NewID returns a process-wide unique node identifier. No ordering guarantee.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a shallow copy of n sharing the same Children slice. Callers
// that change Children must replace the slice, not mutate it in place.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	return &c
}

// IsDecomposable reports whether the node may gain children through expansion.
// Fundamental nodes are terminal by business rule.
func (n *Node) IsDecomposable() bool {
	return n.Type != NodeTypeFundamental
}

// =============================================================================
// QUERY ANALYSIS
// =============================================================================

// Intent is the detected mode of a user query.
type Intent string

const (
	IntentConcept Intent = "CONCEPT"
	IntentProblem Intent = "PROBLEM"
	IntentCompare Intent = "COMPARE"
	IntentWhy     Intent = "WHY"
)

// DataSource marks whether a payload came from a live model call or from the
// deterministic offline substitute.
type DataSource string

const (
	DataSourceAI       DataSource = "AI"
	DataSourceFallback DataSource = "FALLBACK"
)

// QueryAnalysis is the ephemeral interpretation of one user query. It lives for
// the span of a single search session and is replaced on the next query.
type QueryAnalysis struct {
	CorrectedQuery   string     `json:"corrected_query"`
	Intent           Intent     `json:"intent"`
	Domain           string     `json:"domain"`
	IsAmbiguous      bool       `json:"is_ambiguous"`
	AmbiguityOptions []string   `json:"ambiguity_options,omitempty"`
	Enrichment       string     `json:"enrichment"`
	PredictedTopics  []string   `json:"predicted_topics,omitempty"`
	DataSource       DataSource `json:"data_source"`
}

// =============================================================================
// DECOMPOSITION RESULT
// =============================================================================

// RawComponent is a single proposed child as returned by the model, before
// normalization. IsFundamental decides the resulting NodeType.
type RawComponent struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	IsFundamental bool   `json:"is_fundamental"`
	Reasoning     string `json:"reasoning,omitempty"`
}

// DecompositionResult is the ephemeral response record for a decompose or
// verify call. It is consumed immediately by the normalizer and the tree
// engine, then discarded.
type DecompositionResult struct {
	CoreConcept  string         `json:"core_concept"`
	Analogy      string         `json:"analogy"`
	WhyImportant string         `json:"why_important"`
	Components   []RawComponent `json:"components"`
	Assumptions  []string       `json:"assumptions,omitempty"`
	Sources      []Source       `json:"sources,omitempty"`
	DataSource   DataSource     `json:"data_source"`
}

// NormalizeName is the canonical form used for component identity checks:
// whitespace-trimmed, lowercased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
