package events

import (
	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// ImportPipelinePayload is the payload of a TaskTypeImportPipeline event.
// The credential rides along in memory only so the pipeline can call the
// generation backend; it must never be written to a log line or a row.
type ImportPipelinePayload struct {
	JobID      uuid.UUID           `json:"job_id"`
	Credential string              `json:"credential"`
	FromStatus domain.ImportStatus `json:"from_status"`
}
