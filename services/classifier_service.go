package services

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pkowalczyk/autoshop-api/models"
)

// ClassifierMetadata mirrors the model_metadata.json document shipped next to
// the classifier artifact. Only Features is consumed here; accuracy and
// best_params are informational output of the (external) training run.
type ClassifierMetadata struct {
	Features   []string        `json:"features"`
	Accuracy   float64         `json:"accuracy"`
	BestParams json.RawMessage `json:"best_params"`
}

// Classifier assigns a segment label to a feature vector ordered per
// FeatureOrder. Implementations are frozen artifacts: read-only after load
// and safe to share across requests without locking.
type Classifier interface {
	Classify(vector []float64) (string, error)
	FeatureOrder() []string
	Version() string
}

// treeNode is one node of the serialized decision tree. Leaves carry a
// segment label and have Feature set to -1; internal nodes route on
// vector[Feature] <= Threshold.
type treeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Label     string  `json:"label,omitempty"`
}

// treeArtifact is the on-disk classifier format.
type treeArtifact struct {
	Version string     `json:"version"`
	Nodes   []treeNode `json:"nodes"`
}

// DecisionTreeClassifier is the in-memory form of the frozen segmentation
// model: an index-linked decision tree plus its feature-order metadata.
type DecisionTreeClassifier struct {
	version string
	nodes   []treeNode
	meta    ClassifierMetadata
}

// ParseClassifier decodes the artifact and metadata pair into a ready
// classifier, validating that the tree is well formed against the declared
// feature schema.
func ParseClassifier(artifact, metadata []byte) (*DecisionTreeClassifier, error) {
	var meta ClassifierMetadata
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse classifier metadata: %w", err)
	}
	if len(meta.Features) == 0 {
		return nil, fmt.Errorf("classifier metadata declares no features")
	}

	var tree treeArtifact
	if err := json.Unmarshal(artifact, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse classifier artifact: %w", err)
	}
	if len(tree.Nodes) == 0 {
		return nil, fmt.Errorf("classifier artifact contains no nodes")
	}

	for i, node := range tree.Nodes {
		if node.Feature < 0 {
			if !models.ValidSegment(node.Label) {
				return nil, fmt.Errorf("leaf node %d carries invalid segment label %q", i, node.Label)
			}
			continue
		}
		if node.Feature >= len(meta.Features) {
			return nil, fmt.Errorf("node %d routes on feature %d but metadata declares %d features",
				i, node.Feature, len(meta.Features))
		}
		if node.Left < 0 || node.Left >= len(tree.Nodes) || node.Right < 0 || node.Right >= len(tree.Nodes) {
			return nil, fmt.Errorf("node %d has child index out of range", i)
		}
	}

	return &DecisionTreeClassifier{
		version: tree.Version,
		nodes:   tree.Nodes,
		meta:    meta,
	}, nil
}

// Classify walks the tree and returns the segment label at the reached leaf.
func (c *DecisionTreeClassifier) Classify(vector []float64) (string, error) {
	if len(vector) != len(c.meta.Features) {
		return "", fmt.Errorf("feature vector has %d values, classifier expects %d",
			len(vector), len(c.meta.Features))
	}

	idx := 0
	// A well-formed tree terminates well before len(nodes) hops; the bound
	// protects against a cyclic artifact.
	for steps := 0; steps <= len(c.nodes); steps++ {
		node := c.nodes[idx]
		if node.Feature < 0 {
			return node.Label, nil
		}
		if vector[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return "", fmt.Errorf("classifier tree walk did not terminate")
}

// FeatureOrder returns the ordered feature names the classifier was trained
// with. Callers must assemble vectors in exactly this order.
func (c *DecisionTreeClassifier) FeatureOrder() []string {
	return c.meta.Features
}

// Version returns the artifact version string.
func (c *DecisionTreeClassifier) Version() string {
	return c.version
}

var classifierInstance Classifier

// InitClassifier loads the classifier artifact and metadata through the given
// store and installs the resulting classifier as the process-wide instance.
// A missing or unreadable artifact is a recoverable condition: the error
// wraps ErrClassifierUnavailable and no instance is installed, which makes
// the segment updater skip reclassification until the artifact appears.
func InitClassifier(store ArtifactStore) (Classifier, error) {
	artifact, err := store.FetchArtifact()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	metadata, err := store.FetchMetadata()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	classifier, err := ParseClassifier(artifact, metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	classifierInstance = classifier
	logrus.WithFields(logrus.Fields{
		"version":  classifier.Version(),
		"features": classifier.FeatureOrder(),
		"accuracy": classifier.meta.Accuracy,
	}).Info("Segmentation classifier loaded")
	return classifier, nil
}

// GetClassifier returns the process-wide classifier, or nil when no artifact
// has been loaded.
func GetClassifier() Classifier {
	return classifierInstance
}

// SetClassifier sets the classifier instance (primarily for testing)
func SetClassifier(c Classifier) {
	classifierInstance = c
}
