// Package log provides the logging functionality of winebuild.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

var errorPrefix = color.New(color.FgRed).Sprint("ERROR: ")

// Output defines the output channel of a logger to that all log messages are
// written.
type Output interface {
	Printf(format string, v ...any)
	Println(v ...any)
	Fatalf(format string, v ...any)
	Fatalln(v ...any)
}

// Logger logs messages.
type Logger struct {
	debugEnabled bool

	output     Output
	outputLock sync.Mutex
}

// StdLogger is the logger that is used from the log functions in this package.
var StdLogger = New(false)

// New returns a new Logger that logs to stderr.
// Debug messages are only printed if debugEnabled is true.
func New(debugEnabled bool) *Logger {
	return &Logger{
		debugEnabled: debugEnabled,
		output:       log.New(os.Stderr, "", 0),
	}
}

// EnableDebug enables/disables logging debug messages.
func (l *Logger) EnableDebug(enabled bool) {
	l.debugEnabled = enabled
}

// DebugEnabled returns true if logging debug messages is enabled.
func (l *Logger) DebugEnabled() bool {
	return l.debugEnabled
}

// Debugf logs a debug message.
// It's only shown if debugging is enabled.
func (l *Logger) Debugf(format string, v ...any) {
	if !l.debugEnabled {
		return
	}

	l.getOutput().Printf(format, v...)
}

// Debugln logs a debug message.
// It's only shown if debugging is enabled.
func (l *Logger) Debugln(v ...any) {
	if !l.debugEnabled {
		return
	}

	l.getOutput().Println(v...)
}

// Infof logs a message.
func (l *Logger) Infof(format string, v ...any) {
	l.getOutput().Printf(format, v...)
}

// Infoln logs a message.
func (l *Logger) Infoln(v ...any) {
	l.getOutput().Println(v...)
}

// Errorf logs a message with an error prefix.
func (l *Logger) Errorf(format string, v ...any) {
	l.getOutput().Printf(errorPrefix+format, v...)
}

// Errorln logs a message with an error prefix.
func (l *Logger) Errorln(v ...any) {
	if len(v) != 0 {
		v[0] = fmt.Sprintf("%s%s", errorPrefix, v[0])
	}

	l.getOutput().Println(v...)
}

// Fatalf logs a message with an error prefix and terminates the application
// with an error.
func (l *Logger) Fatalf(format string, v ...any) {
	l.getOutput().Fatalf(errorPrefix+format, v...)
}

// Fatalln logs a message with an error prefix and terminates the application
// with an error.
func (l *Logger) Fatalln(v ...any) {
	if len(v) != 0 {
		v[0] = fmt.Sprintf("%s%s", errorPrefix, v[0])
	}

	l.getOutput().Fatalln(v...)
}

func (l *Logger) getOutput() Output {
	l.outputLock.Lock()
	defer l.outputLock.Unlock()

	return l.output
}

// GetOutput returns the output of the logger.
func (l *Logger) GetOutput() Output {
	return l.getOutput()
}

// SetOutput changes the output of the logger.
func (l *Logger) SetOutput(o Output) {
	l.outputLock.Lock()
	defer l.outputLock.Unlock()

	l.output = o
}

// DebugEnabled returns true if the StdLogger logs debug messages.
func DebugEnabled() bool {
	return StdLogger.DebugEnabled()
}

// Debugf logs a debug message to the StdLogger.
func Debugf(format string, v ...any) {
	StdLogger.Debugf(format, v...)
}

// Debugln logs a debug message to the StdLogger.
func Debugln(v ...any) {
	StdLogger.Debugln(v...)
}

// Infof logs a message to the StdLogger.
func Infof(format string, v ...any) {
	StdLogger.Infof(format, v...)
}

// Infoln logs a message to the StdLogger.
func Infoln(v ...any) {
	StdLogger.Infoln(v...)
}

// Errorf logs a message to the StdLogger with an error prefix.
func Errorf(format string, v ...any) {
	StdLogger.Errorf(format, v...)
}

// Errorln logs a message to the StdLogger with an error prefix.
func Errorln(v ...any) {
	StdLogger.Errorln(v...)
}

// Fatalf logs a message to the StdLogger with an error prefix and terminates
// the application with an error.
func Fatalf(format string, v ...any) {
	StdLogger.Fatalf(format, v...)
}

// Fatalln logs a message to the StdLogger with an error prefix and terminates
// the application with an error.
func Fatalln(v ...any) {
	StdLogger.Fatalln(v...)
}
