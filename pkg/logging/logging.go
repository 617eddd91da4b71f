package logging

import "go.uber.org/zap"

// New builds the process logger. Anything other than "production" gets the
// human-readable development encoder.
func New(env string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// GetSugaredLogger is New for callers that cannot handle a construction error.
func GetSugaredLogger(env string) *zap.SugaredLogger {
	sl, err := New(env)
	if err != nil {
		panic("cannot initialize zap")
	}
	return sl
}
