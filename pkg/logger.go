package slicer

type Logger interface {
	Info(message string, module string)
	Warn(message string, module string)
	Error(string)
}

// nopLogger keeps the library usable before SetLogger is called.
type nopLogger struct{}

func (nopLogger) Info(string, string) {}
func (nopLogger) Warn(string, string) {}
func (nopLogger) Error(string)        {}

var logger Logger = nopLogger{}

func SetLogger(l Logger) {
	logger = l
}
