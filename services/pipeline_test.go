package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkowalczyk/autoshop-api/config"
	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestCompletingLastItemRunsFullCascade(t *testing.T) {
	t.Cleanup(func() {
		SetClassifier(nil)
		ResetSegmentListeners()
	})
	SetClassifier(&stubClassifier{segment: models.SegmentB, order: stubOrder()})

	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)
	require.NoError(t, db.Model(appointment).Update("mileage", 45000).Error)

	pipeline := NewPipeline(db, config.DefaultDiscounts())

	testutil.CreateTestRepairItem(t, db, appointment, "Pads", 100, models.RepairItemCompleted, 1)
	testutil.CreateTestRepairItem(t, db, appointment, "Discs", 200, models.RepairItemCompleted, 2)
	last := testutil.CreateTestRepairItem(t, db, appointment, "Fluid", 50, models.RepairItemPending, 3)

	segmentationAttempts := 0
	RegisterSegmentListener(func(SegmentChange) { segmentationAttempts++ })

	// Completing the last open item flips the appointment
	_, err := CompleteRepairItem(pipeline, last.ID, nil, ptr(30))
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, models.AppointmentCompleted, stored.Status)
	assert.Equal(t, 350.0, stored.TotalCost)

	// Exactly one service record
	var records int64
	require.NoError(t, db.Model(&models.ServiceRecord{}).
		Where("appointment_id = ?", appointment.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)

	// Vehicle odometer advanced
	var storedVehicle models.Vehicle
	require.NoError(t, db.First(&storedVehicle, "id = ?", vehicle.ID).Error)
	assert.Equal(t, uint(45000), storedVehicle.Mileage)

	// Exactly one segmentation, segment/discount consistent with the table
	assert.Equal(t, 1, segmentationAttempts)
	var storedClient models.Client
	require.NoError(t, db.First(&storedClient, "id = ?", client.ID).Error)
	require.NotNil(t, storedClient.Segment)
	assert.Equal(t, models.SegmentB, *storedClient.Segment)
	assert.Equal(t, 10.0, storedClient.Discount)

	// A later cost correction on the completed appointment must not
	// materialize a second record or re-run the transition
	_, err = UpdateRepairItem(pipeline, last.ID, RepairItemInput{Cost: ptr(75.0)})
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 375.0, stored.TotalCost, "completed appointments stay mutable for cost")
	require.NoError(t, db.Model(&models.ServiceRecord{}).
		Where("appointment_id = ?", appointment.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)
	assert.Equal(t, 1, segmentationAttempts)
}

func TestMissingClassifierDoesNotFailTheWrite(t *testing.T) {
	SetClassifier(nil)

	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)

	pipeline := NewPipeline(db, config.DefaultDiscounts())
	item := testutil.CreateTestRepairItem(t, db, appointment, "Pads", 100, models.RepairItemPending, 1)

	// The completion (and the appointment transition) must succeed even
	// though reclassification is skipped
	_, err := CompleteRepairItem(pipeline, item.ID, nil, nil)
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, models.AppointmentCompleted, stored.Status)

	// History still materialized; only segmentation was skipped
	var records int64
	require.NoError(t, db.Model(&models.ServiceRecord{}).
		Where("appointment_id = ?", appointment.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)

	var storedClient models.Client
	require.NoError(t, db.First(&storedClient, "id = ?", client.ID).Error)
	assert.Nil(t, storedClient.Segment)
}

func TestLedgerWritesDriveAggregate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 10)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)

	pipeline := NewPipeline(db, config.DefaultDiscounts())

	first, err := AddRepairItem(pipeline, appointment.ID, RepairItemInput{
		Description:       ptr("Brake pads"),
		Cost:              ptr(100.0),
		EstimatedDuration: ptr(60),
	})
	require.NoError(t, err)
	_, err = AddRepairItem(pipeline, appointment.ID, RepairItemInput{
		Description:       ptr("Oil change"),
		Cost:              ptr(50.0),
		EstimatedDuration: ptr(30),
	})
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 135.0, stored.TotalCost, "10%% discount applied to 150")
	assert.Equal(t, 90, stored.EstimatedDuration)

	// Deleting a line shrinks the aggregate
	require.NoError(t, DeleteRepairItem(pipeline, first.ID))
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 45.0, stored.TotalCost)
	assert.Equal(t, 30, stored.EstimatedDuration)
}

func TestPartWritesRecomputeCostOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)

	pipeline := NewPipeline(db, config.DefaultDiscounts())

	part, err := AddPart(pipeline, appointment.ID, PartInput{
		Name:     ptr("Air filter"),
		CostPart: ptr(20.0),
		Quantity: ptr(2),
	})
	require.NoError(t, err)

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 40.0, stored.TotalCost)
	assert.Equal(t, models.AppointmentScheduled, stored.Status, "parts never complete an appointment")
	assert.Equal(t, 0, stored.EstimatedDuration)

	_, err = UpdatePart(pipeline, part.ID, PartInput{Quantity: ptr(3)})
	require.NoError(t, err)
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 60.0, stored.TotalCost)

	require.NoError(t, DeletePart(pipeline, part.ID))
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, 0.0, stored.TotalCost)
}

func TestCancelAppointment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)

	pipeline := NewPipeline(db, config.DefaultDiscounts())

	t.Run("scheduled appointment cancels", func(t *testing.T) {
		appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)
		require.NoError(t, CancelAppointment(pipeline, appointment.ID))

		var stored models.Appointment
		require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
		assert.Equal(t, models.AppointmentCanceled, stored.Status)

		// No service record for canceled visits
		var records int64
		require.NoError(t, db.Model(&models.ServiceRecord{}).
			Where("appointment_id = ?", appointment.ID).Count(&records).Error)
		assert.Equal(t, int64(0), records)
	})

	t.Run("completed appointment cannot be canceled", func(t *testing.T) {
		appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentCompleted)
		err := CancelAppointment(pipeline, appointment.ID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestConcurrentWritesToOneAppointmentAreSerialized(t *testing.T) {
	db := testutil.SetupTestDB(t)
	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 0)
	vehicle := testutil.CreateTestVehicle(t, db, client, 2018, 40000)
	appointment := testutil.CreateTestAppointment(t, db, client, vehicle, models.AppointmentScheduled)

	pipeline := NewPipeline(db, config.DefaultDiscounts())

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := AddRepairItem(pipeline, appointment.ID, RepairItemInput{
				Description: ptr(fmt.Sprintf("Job %d", n)),
				Cost:        ptr(10.0),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var stored models.Appointment
	require.NoError(t, db.First(&stored, "id = ?", appointment.ID).Error)
	assert.Equal(t, float64(writers)*10.0, stored.TotalCost, "no lost updates under concurrent writes")
}
