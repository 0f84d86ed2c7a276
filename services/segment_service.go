package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
)

// SegmentChange describes a client moving between segments. Previous is
// empty when the client had never been classified.
type SegmentChange struct {
	ClientID string
	Previous string
	Segment  string
	Discount float64
}

// SegmentListener receives segment-change events. Listeners are for
// observability only; they must not write back into the pipeline.
type SegmentListener func(SegmentChange)

var (
	segmentListeners   []SegmentListener
	segmentListenersMu sync.RWMutex
)

// RegisterSegmentListener adds an observer for segment-change events.
func RegisterSegmentListener(fn SegmentListener) {
	segmentListenersMu.Lock()
	segmentListeners = append(segmentListeners, fn)
	segmentListenersMu.Unlock()
}

// ResetSegmentListeners removes all registered listeners (primarily for testing)
func ResetSegmentListeners() {
	segmentListenersMu.Lock()
	segmentListeners = nil
	segmentListenersMu.Unlock()
}

func notifySegmentChange(change SegmentChange) {
	segmentListenersMu.RLock()
	listeners := segmentListeners
	segmentListenersMu.RUnlock()
	for _, fn := range listeners {
		fn(change)
	}
}

// UpdateClientSegment runs the segmentation branch for one client: extract
// features, classify, resolve the discount, and persist segment and discount
// together. The write only happens when something changed, and it never
// triggers appointment or ledger recomputation.
//
// When no classifier is loaded the client keeps its current segment and the
// returned error wraps ErrClassifierUnavailable; callers on the write path
// treat that as a reported condition, not a failure.
func UpdateClientSegment(db *gorm.DB, discounts config.DiscountTable, clientID string, now time.Time) error {
	classifier := GetClassifier()
	if classifier == nil {
		return fmt.Errorf("%w: no classifier loaded, keeping current segment for client %s",
			ErrClassifierUnavailable, clientID)
	}

	var client models.Client
	if err := db.First(&client, "id = ?", clientID).Error; err != nil {
		return fmt.Errorf("failed to load client for segmentation: %w", err)
	}

	features, err := ExtractClientFeatures(db, &client, now)
	if err != nil {
		return err
	}

	segment, err := classifier.Classify(BuildVector(features, classifier.FeatureOrder(), now))
	if err != nil {
		return fmt.Errorf("classification failed for client %s: %w", clientID, err)
	}
	if !models.ValidSegment(segment) {
		return fmt.Errorf("%w: %q", ErrUnknownSegment, segment)
	}

	discount := discounts.Discount(segment)
	previous := ""
	if client.Segment != nil {
		previous = *client.Segment
	}

	if previous == segment && client.Discount == discount {
		return nil
	}

	// Segment and discount move as one atomic client update so the pair can
	// never be observed inconsistent with the discount table.
	if err := db.Model(&models.Client{}).Where("id = ?", clientID).
		Updates(map[string]interface{}{
			"segment":  segment,
			"discount": discount,
		}).Error; err != nil {
		return fmt.Errorf("failed to persist client segment: %w", err)
	}

	if previous != segment {
		change := SegmentChange{
			ClientID: clientID,
			Previous: previous,
			Segment:  segment,
			Discount: discount,
		}
		logrus.WithFields(logrus.Fields{
			"client_id": change.ClientID,
			"previous":  change.Previous,
			"segment":   change.Segment,
			"discount":  change.Discount,
		}).Info("Client segment changed")
		notifySegmentChange(change)
	}
	return nil
}

// ReclassifyAll reruns segmentation for every client. Used by the admin
// resegmentation endpoint after a new model artifact is rolled out.
// Per-client failures are logged and skipped; the pass keeps going.
func ReclassifyAll(db *gorm.DB, discounts config.DiscountTable, now time.Time) (int, error) {
	if GetClassifier() == nil {
		return 0, fmt.Errorf("%w: cannot run batch reclassification", ErrClassifierUnavailable)
	}

	var clients []models.Client
	if err := db.Find(&clients).Error; err != nil {
		return 0, fmt.Errorf("failed to list clients: %w", err)
	}

	updated := 0
	for _, client := range clients {
		if err := UpdateClientSegment(db, discounts, client.ID, now); err != nil {
			logrus.WithError(err).WithField("client_id", client.ID).
				Warn("Skipping client during batch reclassification")
			continue
		}
		updated++
	}
	return updated, nil
}
