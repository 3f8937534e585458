package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/rainelab/companion-backend-go/internal/models"
)

func bindTrack(t *testing.T, body string) (models.TrackRequest, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/location/track", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req models.TrackRequest
	err := c.ShouldBindJSON(&req)
	return req, err
}

func TestTrackBindingAcceptsZeroCoordinates(t *testing.T) {
	req, err := bindTrack(t, `{"latitude": 0, "longitude": 0}`)
	require.NoError(t, err)
	require.NotNil(t, req.Latitude)
	require.NotNil(t, req.Longitude)
	require.Zero(t, *req.Latitude)
	require.Zero(t, *req.Longitude)
}

func TestTrackBindingRejectsMissingCoordinates(t *testing.T) {
	_, err := bindTrack(t, `{"latitude": 40.0}`)
	require.Error(t, err)

	_, err = bindTrack(t, `{}`)
	require.Error(t, err)
}
