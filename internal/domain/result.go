package domain

// ValidationOutcome classifies one normalized record. Violations is empty
// exactly when Valid is true.
type ValidationOutcome struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// InvalidRecord pairs a rejected record with the rules it violated, for
// callers that asked for per-record detail.
type InvalidRecord struct {
	Record     NormalizedRecord `json:"record"`
	RowNumber  int              `json:"rowNumber"`
	Violations []string         `json:"violations"`
}

// StoreFailure reports one record the store collaborator could not persist.
type StoreFailure struct {
	RowNumber int    `json:"rowNumber"`
	Key       string `json:"key,omitempty"`
	Message   string `json:"message"`
}

// PipelineResult summarizes one pipeline run. Valid+Invalid always equals
// Total, and Stored never exceeds Valid; callers reconcile Total against
// Stored to detect partial persistence.
type PipelineResult struct {
	Total          int             `json:"total"`
	Valid          int             `json:"valid"`
	Invalid        int             `json:"invalid"`
	Stored         int             `json:"stored"`
	InvalidRecords []InvalidRecord `json:"invalidRecords,omitempty"`
	StoreFailures  []StoreFailure  `json:"storeFailures,omitempty"`
}
