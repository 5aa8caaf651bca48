package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackingURIFromEnvironment(t *testing.T) {
	t.Setenv(TrackingURIEnvVarName, "http://localhost:8080/")
	uri, err := TrackingURIFromEnvironment()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", uri)
}

func TestTrackingURIMissing(t *testing.T) {
	t.Setenv(TrackingURIEnvVarName, "")
	_, err := TrackingURIFromEnvironment()
	require.ErrorIs(t, err, ErrNoTrackingURI)
}
