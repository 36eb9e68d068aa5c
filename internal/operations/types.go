package operations

import (
	"time"
)

// Step identifiers
const (
	StepIDIngest    = "ingest"
	StepIDNormalize = "normalize"
	StepIDDerive    = "derive"
	StepIDRender    = "render"
	StepIDExport    = "export"
)

// Step names
const (
	StepNameIngest    = "Source Ingest"
	StepNameNormalize = "Table Normalization"
	StepNameDerive    = "Indicator Derivation"
	StepNameRender    = "Chart Rendering"
	StepNameExport    = "Table Export"
)

// Artifact kinds reported in metrics and responses
const (
	ArtifactFigure   = "figure"
	ArtifactCSV      = "csv"
	ArtifactWorkbook = "xlsx"
	ArtifactSQLite   = "sqlite"
)

// OperationResponse summarizes a finished run
type OperationResponse struct {
	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	Duration  time.Duration        `json:"duration"`
	Steps     []*StepState         `json:"steps"`
	Artifacts []string             `json:"artifacts,omitempty"`
	Error     string               `json:"error,omitempty"`
}
