// Package dashboard implements [interpret.Client] for the dashboard's
// interpretation endpoints.
//
// A request is a JSON POST answered by a text/event-stream body. The body is
// read in raw chunks and fed through [frame.Decoder] and [frame.Parse], so a
// frame may span any number of reads.
package dashboard

const (
	contentType     = "application/json"
	accept          = "text/event-stream"
	requestIDHeader = "X-Request-ID"

	// readSize is the buffer handed to each body read.
	readSize = 4096

	// maxErrorBody bounds how much of a failed response is read into the
	// error.
	maxErrorBody = 512
)
