package log

import "testing"

// TestLogOutput is a logger Output that writes all messages via t.Logf.
type TestLogOutput struct {
	t *testing.T
}

// NewTestLogOutput returns an Output that forwards all messages to the
// logger of the testcase.
func NewTestLogOutput(t *testing.T) *TestLogOutput {
	return &TestLogOutput{t: t}
}

func (o *TestLogOutput) Printf(format string, v ...any) {
	o.t.Logf(format, v...)
}

func (o *TestLogOutput) Println(v ...any) {
	o.t.Log(v...)
}

func (o *TestLogOutput) Fatalf(format string, v ...any) {
	o.t.Fatalf(format, v...)
}

func (o *TestLogOutput) Fatalln(v ...any) {
	o.t.Fatal(v...)
}

// RedirectToTestingLog redirects all log output while a testcase is executed
// to t.Log.
// When the testcase finished, the logger output and the debug log level is
// restored to the previous values.
func RedirectToTestingLog(t *testing.T) {
	oldLogOut := StdLogger.GetOutput()
	oldDebugEnabled := StdLogger.DebugEnabled()

	StdLogger.SetOutput(NewTestLogOutput(t))
	StdLogger.EnableDebug(true)

	t.Cleanup(func() {
		StdLogger.SetOutput(oldLogOut)
		StdLogger.EnableDebug(oldDebugEnabled)
	})
}
