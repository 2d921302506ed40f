package models

// RetrieveRequest is the input to pkg/retrieval.Service.Retrieve.
type RetrieveRequest struct {
	TenantID           string   `json:"tenant_id"`
	Channel            string   `json:"channel"`
	AgentID            string   `json:"agent_id"`
	SessionID          string   `json:"session_id"`
	QueryText          string   `json:"query_text"`
	Intent             string   `json:"intent,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	TimeWindowHint     string   `json:"time_window_hint,omitempty"`
	CandidatePoolMax   int      `json:"candidate_pool_max,omitempty"`
	RetrievedChunksMax int      `json:"retrieved_chunks_max,omitempty"`
}

// RetrieveResponse is the output of Retrieve: a scored, ordered, capped
// slice of chunk candidates ready for ACB packing.
type RetrieveResponse struct {
	Chunks            []*ScoredChunk      `json:"chunks"`
	CandidatePoolSize int                 `json:"candidate_pool_size"`
	FileReads         int                 `json:"file_reads"`
	Coefficients      ScoringCoefficients `json:"coefficients"`
}

// ScoringCoefficients records the (alpha, beta, gamma) weights used to
// produce a RetrieveResponse, for provenance reporting in the ACB.
type ScoringCoefficients struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	Tau   float64 `json:"tau_seconds"`
	RRFK  int     `json:"rrf_k"`
}
