package observability

import (
	"testing"
	"time"

	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("meshexecd", "GET", "/health", 200, 12*time.Millisecond)
	RecordDispatch("meshexecd", "accepted")
	RecordExecution("meshexecd", "success", 2400*time.Millisecond)
	RecordTransportAttempt("meshexecd", "ssh-cli", "denied")

	log.Debug().Msg("observability/metrics: registration idempotent and recording paths executed")
}
