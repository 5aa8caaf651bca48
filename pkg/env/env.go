package env

import (
	"errors"
	"os"
	"strings"
)

const TrackingURIEnvVarName = "OPSML_TRACKING_URI"

var ErrNoTrackingURI = errors.New("no OPSML_TRACKING_URI found, check your environment")

// TrackingURIFromEnvironment returns the base address of the tracking server.
// The value is read once at command start and handed to the API client, so a
// single process can talk to more than one server in tests.
func TrackingURIFromEnvironment() (string, error) {
	uri := os.Getenv(TrackingURIEnvVarName)
	if uri == "" {
		return "", ErrNoTrackingURI
	}
	return strings.TrimSuffix(uri, "/"), nil
}
