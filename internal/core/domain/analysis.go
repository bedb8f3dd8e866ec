package domain

// KeyConcept is a term the analysis picked out, with its definition.
type KeyConcept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// DocumentAnalysis is the structured overview of a document.
// The JSON tags match the payload requested from the LLM.
type DocumentAnalysis struct {
	OneSentenceSummary   string       `json:"one_sentence_summary"`
	Summary              string       `json:"summary"`
	KeyPoints            []string     `json:"key_points"`
	KeyConcepts          []KeyConcept `json:"key_concepts"`
	DocumentType         string       `json:"document_type"`
	DifficultyLevel      string       `json:"difficulty_level"`
	TargetAudience       string       `json:"target_audience"`
	LearningSuggestions  []string     `json:"learning_suggestions"`
	EstimatedReadingTime string       `json:"estimated_reading_time"`
	CommonQuestions      []string     `json:"common_questions"`
}

// Normalise replaces nil lists with empty ones so a stored analysis
// always serialises every list as [] rather than null.
func (a *DocumentAnalysis) Normalise() {
	if a.KeyPoints == nil {
		a.KeyPoints = []string{}
	}
	if a.KeyConcepts == nil {
		a.KeyConcepts = []KeyConcept{}
	}
	if a.LearningSuggestions == nil {
		a.LearningSuggestions = []string{}
	}
	if a.CommonQuestions == nil {
		a.CommonQuestions = []string{}
	}
}
