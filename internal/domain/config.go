package domain

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	Algorithm           string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the default configuration tuned for BAAI/bge-base-en-v1.5.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:            "BAAI/bge-base-en-v1.5",
		Dimensions:       768,
		DistanceMetric:   "l2",
		Algorithm:        "flat",
		QueryInstruction: "Represent this sentence for searching relevant passages: ",
	}
}

// DefaultTopK is the number of candidates retrieved per query.
const DefaultTopK = 5

// DefaultGenerationModel is the generative model used for decisions and dataset rewrites.
const DefaultGenerationModel = "gemini-2.5-flash"
