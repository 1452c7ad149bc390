package dice

import "go.uber.org/zap"

// LoggedPicker wraps a Picker and logs every draw at debug level.
type LoggedPicker struct {
	inner  Picker
	logger *zap.Logger
}

// NewLoggedPicker creates a Picker that delegates to inner and logs each draw to logger.
//
// Precondition: inner and logger must be non-nil.
func NewLoggedPicker(inner Picker, logger *zap.Logger) *LoggedPicker {
	return &LoggedPicker{inner: inner, logger: logger}
}

// Pick delegates to the wrapped Picker and logs the chosen index.
func (l *LoggedPicker) Pick(n int) int {
	idx := l.inner.Pick(n)
	l.logger.Debug("dice pick",
		zap.Int("n", n),
		zap.Int("index", idx),
	)
	return idx
}

// Sample delegates to the wrapped Picker and logs the chosen indices.
func (l *LoggedPicker) Sample(n, k int) []int {
	idx := l.inner.Sample(n, k)
	l.logger.Debug("dice sample",
		zap.Int("n", n),
		zap.Int("k", k),
		zap.Ints("indices", idx),
	)
	return idx
}
