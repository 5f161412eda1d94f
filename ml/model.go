package ml

// Backend is a trained classifier. Implementations are immutable after load
// and safe to share across goroutines.
type Backend interface {
	Predict(vector FeatureVector) (int, error)
}

// FeatureDescriber is implemented by backends whose artifact records the
// features they were fit on.
type FeatureDescriber interface {
	NumFeatures() int
	FeatureNames() []string
}
