package httpserver

// Response types for JSON serialization. Analysis and apply results are
// serialized straight from their domain types.

type healthResponse struct {
	Status   string `json:"status"`
	Mappings int    `json:"mappings"`
	Error    string `json:"error,omitempty"`
}

type mappingResponse struct {
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
}

type matchResponse struct {
	Key        string  `json:"key"`
	Normalized string  `json:"normalized"`
	Confidence float64 `json:"confidence"`
	UsageCount int     `json:"usage_count"`
}

type similarMappingsResponse struct {
	Query   string          `json:"query"`
	Matches []matchResponse `json:"matches"`
}

type variantsResponse struct {
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}
