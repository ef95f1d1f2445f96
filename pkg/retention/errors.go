package retention

import (
	"encoding/json"
	"fmt"
)

// Stage names the step of a camera pass that failed.
type Stage string

const (
	StageQueryEvents     Stage = "query_events"
	StageQueryRecordings Stage = "query_recordings"
	StageDeleteRows      Stage = "delete_rows"
)

// PassError is a catalog failure that aborted one camera's pass. The other
// cameras of the pass are unaffected and the rows it left behind stay
// eligible for the next pass.
type PassError struct {
	Camera string `json:"camera"`
	Stage  Stage  `json:"stage"`
	Cause  error  `json:"-"`
}

// Error implements the error interface.
func (e *PassError) Error() string {
	return fmt.Sprintf("retention pass failed [camera=%s, stage=%s]: %v", e.Camera, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PassError) Unwrap() error {
	return e.Cause
}

// MarshalJSON includes the cause message, which error values do not carry
// through encoding/json.
func (e *PassError) MarshalJSON() ([]byte, error) {
	type alias PassError
	cause := ""
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return json.Marshal(struct {
		*alias
		Error string `json:"error,omitempty"`
	}{(*alias)(e), cause})
}

// NewPassError creates a new PassError.
func NewPassError(camera string, stage Stage, cause error) *PassError {
	return &PassError{
		Camera: camera,
		Stage:  stage,
		Cause:  cause,
	}
}
