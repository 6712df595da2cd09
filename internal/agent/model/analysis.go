package model

// AnalyzeRequest is the body of the analysis endpoint.
type AnalyzeRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// AnalysisResult holds the structured signals extracted from a query.
type AnalysisResult struct {
	Query           string             `json:"query"`
	Intent          string             `json:"intent"`
	Entities        []string           `json:"entities"`
	Confidence      map[string]float32 `json:"confidence"`
	Recommendations []string           `json:"recommendations"`
}

// CustomerQueryRequest is the body of the customer query analysis endpoint.
type CustomerQueryRequest struct {
	CustomerQuery string `json:"customerQuery"`
}

// CustomerQueryAnalysis classifies a customer's flight query.
type CustomerQueryAnalysis struct {
	CustomerQuery string `json:"customerQuery"`
	Emotion       string `json:"emotion"`
	Intent        string `json:"intent"`
	Requirements  string `json:"requirements"`
	Preferences   string `json:"preferences"`
}

// Capability describes one feature of the assistant.
type Capability struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	SupportedLanguages []string `json:"supportedLanguages"`
	IsAvailable        bool     `json:"isAvailable"`
}
