package host

import (
	"strings"

	"github.com/mverel/guildmaster/pkg/logger"
)

// quirkMarkers are transport errors on the response-parsing path that the
// upstream emits after the work itself has committed: the result frame was
// mangled, not the execution. This string matching is a workaround for a
// host bug and stays in the adapter layer; the orchestrator's error taxonomy
// never sees these.
var quirkMarkers = []string{
	"failed to unmarshal response",
	"unexpected end of JSON input",
}

// ClassifyResult maps a transport's raw (output, error) pair onto the host
// contract. Parse-path quirk errors become successes carrying whatever
// output survived; every other error passes through as a real failure.
func ClassifyResult(output string, err error) (string, error) {
	if err == nil {
		return output, nil
	}
	msg := err.Error()
	for _, marker := range quirkMarkers {
		if strings.Contains(msg, marker) {
			logger.WarnX(moduleName, "treating response-parse error as success: %v", err)
			return output, nil
		}
	}
	return "", err
}
