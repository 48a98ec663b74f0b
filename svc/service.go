package svc

const (
	StateREADY = iota
	StateRUNNING
	StateSTOPPED
)

// Service - a long-running part of the app managed by conf.Core:
// the HTTP server, the job worker, the admin socket.
type Service interface {
	Start() error // bootstrapping error only
	Stop()
	// Done - shutdown error channel
	// Since consumed by conf.Core only, Do Not Close the channel in a method
	Done() <-chan error
	Name() string
}
