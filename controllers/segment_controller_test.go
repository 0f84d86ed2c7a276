package controllers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkowalczyk/autoshop-api/models"
	"github.com/pkowalczyk/autoshop-api/services"
	"github.com/pkowalczyk/autoshop-api/tests/testutil"
)

// fixedClassifier always returns the same segment
type fixedClassifier struct {
	segment string
}

func (f *fixedClassifier) Classify(vector []float64) (string, error) { return f.segment, nil }
func (f *fixedClassifier) FeatureOrder() []string {
	return []string{services.FeatureRecency, services.FeatureFrequency, services.FeatureMonetaryValue}
}
func (f *fixedClassifier) Version() string { return "test-1" }

func TestClassifierStatus(t *testing.T) {
	setupControllerTest(t)
	router := setupRouter()

	w := performJSON(router, http.MethodGet, "/api/v1/classifier/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, false, data["loaded"])

	services.SetClassifier(&fixedClassifier{segment: models.SegmentB})

	w = performJSON(router, http.MethodGet, "/api/v1/classifier/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeResponse(t, w)
	data = response["data"].(map[string]interface{})
	assert.Equal(t, true, data["loaded"])
	assert.Equal(t, "test-1", data["version"])
	require.Len(t, data["features"].([]interface{}), 3)
}

func TestGetClientSegment(t *testing.T) {
	db := setupControllerTest(t)
	router := setupRouter()

	workshop := testutil.CreateTestWorkshop(t, db)
	client := testutil.CreateTestClient(t, db, workshop, 10)
	segment := models.SegmentB
	require.NoError(t, db.Model(client).Updates(map[string]interface{}{
		"segment":  segment,
		"discount": 10.0,
	}).Error)

	w := performJSON(router, http.MethodGet, "/api/v1/clients/"+client.ID+"/segment", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, client.ID, data["client_id"])
	assert.Equal(t, "B", data["segment"])
	assert.Equal(t, 10.0, data["discount"])

	w = performJSON(router, http.MethodGet,
		"/api/v1/clients/00000000-0000-0000-0000-000000000000/segment", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	response = decodeResponse(t, w)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "CLIENT_NOT_FOUND", errorData["code"])
}

func TestRecomputeSegments(t *testing.T) {
	db := setupControllerTest(t)
	router := setupRouter()

	workshop := testutil.CreateTestWorkshop(t, db)
	testutil.CreateTestClient(t, db, workshop, 0)
	testutil.CreateTestClient(t, db, workshop, 0)

	// Without a loaded model the batch refuses to run
	w := performJSON(router, http.MethodPost, "/api/v1/admin/segments/recompute", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	response := decodeResponse(t, w)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "CLASSIFIER_UNAVAILABLE", errorData["code"])

	services.SetClassifier(&fixedClassifier{segment: models.SegmentA})

	w = performJSON(router, http.MethodPost, "/api/v1/admin/segments/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["clients_updated"])

	var clients []models.Client
	require.NoError(t, db.Find(&clients).Error)
	for _, cl := range clients {
		require.NotNil(t, cl.Segment)
		assert.Equal(t, models.SegmentA, *cl.Segment)
		assert.Equal(t, 20.0, cl.Discount)
	}
}
