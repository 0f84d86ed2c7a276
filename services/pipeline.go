package services

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
)

// Pipeline is the ordered reaction chain behind every ledger write:
//
//	line-item change -> cost + duration recompute -> status recompute
//	  -> [on transition into completed] materialize history -> update segment
//
// The order is fixed and acyclic; downstream steps never write back into the
// ledger or the aggregate, so a reaction can never re-trigger itself.
//
// Writes to the same appointment are serialized through a per-appointment
// mutex; writes to different appointments run in parallel. Recompute failures
// roll back and fail the triggering write (cost correctness is load-bearing
// for billing); history and segmentation failures are logged and dropped.
type Pipeline struct {
	db        *gorm.DB
	discounts config.DiscountTable
	locks     sync.Map // appointment ID -> *sync.Mutex
}

// NewPipeline creates a reaction pipeline bound to a database handle and the
// process-wide discount table.
func NewPipeline(db *gorm.DB, discounts config.DiscountTable) *Pipeline {
	return &Pipeline{db: db, discounts: discounts}
}

var pipelineInstance *Pipeline

// InitPipeline installs the process-wide pipeline used by the controllers.
func InitPipeline(db *gorm.DB, discounts config.DiscountTable) *Pipeline {
	pipelineInstance = NewPipeline(db, discounts)
	return pipelineInstance
}

// GetPipeline returns the process-wide pipeline instance.
func GetPipeline() *Pipeline {
	return pipelineInstance
}

// SetPipeline sets the pipeline instance (primarily for testing)
func SetPipeline(p *Pipeline) {
	pipelineInstance = p
}

func (p *Pipeline) lock(appointmentID string) func() {
	value, _ := p.locks.LoadOrStore(appointmentID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RunRepairItemWrite applies a repair item mutation and reacts to it: cost,
// duration and status are recomputed in the same transaction as the write,
// and a transition into completed triggers the downstream steps after commit.
func (p *Pipeline) RunRepairItemWrite(appointmentID string, mutate func(tx *gorm.DB) error) error {
	unlock := p.lock(appointmentID)
	defer unlock()

	transitioned := false
	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := mutate(tx); err != nil {
			return err
		}
		if _, err := RecomputeCost(tx, appointmentID, p.discounts); err != nil {
			return err
		}
		if _, err := RecomputeDuration(tx, appointmentID); err != nil {
			return err
		}
		var err error
		transitioned, err = RecomputeStatus(tx, appointmentID)
		return err
	})
	if err != nil {
		return err
	}

	if transitioned {
		p.runDownstream(appointmentID)
	}
	return nil
}

// RunPartWrite applies a part mutation and recomputes the appointment cost.
// Parts carry no duration and no status, so the rest of the chain stays idle.
func (p *Pipeline) RunPartWrite(appointmentID string, mutate func(tx *gorm.DB) error) error {
	unlock := p.lock(appointmentID)
	defer unlock()

	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := mutate(tx); err != nil {
			return err
		}
		_, err := RecomputeCost(tx, appointmentID, p.discounts)
		return err
	})
}

// runDownstream executes the best-effort tail of the chain after an
// appointment completed: service-history materialization, then client
// segmentation. Failures here are surfaced to operators through logging and
// never propagate to the write that triggered them.
func (p *Pipeline) runDownstream(appointmentID string) {
	now := time.Now()
	log := logrus.WithField("appointment_id", appointmentID)

	record, created, err := MaterializeServiceRecord(p.db, appointmentID, now)
	switch {
	case err != nil:
		log.WithError(err).Error("Service history materialization failed")
	case created:
		log.WithField("service_record_id", record.ID).Info("Service record created")
	}

	var appointment models.Appointment
	if err := p.db.Select("client_id").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		log.WithError(err).Error("Failed to resolve client for segmentation")
		return
	}

	if err := UpdateClientSegment(p.db, p.discounts, appointment.ClientID, now); err != nil {
		if errors.Is(err, ErrClassifierUnavailable) {
			log.WithError(err).Warn("Skipping client reclassification")
		} else {
			log.WithError(err).Error("Client segmentation failed")
		}
	}
}
