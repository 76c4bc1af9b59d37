package backend

// GenerationRequest carries everything the backend needs to generate. The
// client forwards these fields without interpreting their values.
type GenerationRequest struct {
	ChatID string `json:"chat_id,omitempty"`
	TurnID string `json:"turn_id,omitempty"`

	Prompt  string   `json:"prompt"`
	Models  []string `json:"models,omitempty"`
	Outline []string `json:"outline,omitempty"`

	Personality    string         `json:"personality,omitempty"`
	Retrieval      map[string]any `json:"retrieval,omitempty"`
	Search         map[string]any `json:"search,omitempty"`
	PageRange      *PageRange     `json:"page_range,omitempty"`
	Attachments    string         `json:"attachments,omitempty"`
	QualityProfile string         `json:"quality_profile,omitempty"`
	ReviewPolicy   string         `json:"review_policy,omitempty"`
	DocumentType   string         `json:"document_type,omitempty"`
	Formatting     map[string]any `json:"formatting,omitempty"`
}

// PageRange constrains the generated document length.
type PageRange struct {
	Min int `json:"min,omitempty"`
	Max int `json:"max,omitempty"`
}

// OutlineRequest asks for a preliminary outline before the main stream.
type OutlineRequest struct {
	Prompt    string     `json:"prompt"`
	PageRange *PageRange `json:"page_range,omitempty"`
}

// OutlineResponse carries the ordered section titles.
type OutlineResponse struct {
	Sections []string `json:"sections"`
}

// Candidate is one model's authoritative output offered for consolidation.
type Candidate struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// ConsolidationRequest asks the backend to merge multiple models'
// candidate outputs for one turn into a single response.
type ConsolidationRequest struct {
	TurnID     string      `json:"turn_id"`
	Prompt     string      `json:"prompt,omitempty"`
	Candidates []Candidate `json:"candidates"`
}

// ConsolidationResponse is the consolidated output.
type ConsolidationResponse struct {
	Text      string `json:"text"`
	Rationale string `json:"rationale,omitempty"`
}

// Decision is a human review decision submitted to resume a paused job.
type Decision struct {
	Approve  bool     `json:"approve"`
	Edits    string   `json:"edits,omitempty"`
	Sections []string `json:"sections,omitempty"`
}
