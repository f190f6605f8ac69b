package command

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)
