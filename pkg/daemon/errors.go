package daemon

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
)

// toStatus maps domain errors onto gRPC codes. The message keeps the
// sentinel text so clients can map it back.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch {
	case errors.Is(err, sequencer.ErrBusy),
		errors.Is(err, sequencer.ErrAlreadyActive),
		errors.Is(err, sequencer.ErrNotActive),
		errors.Is(err, profile.ErrFavoriteLimit):
		code = codes.FailedPrecondition
	case errors.Is(err, profile.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, profile.ErrNameRequired),
		errors.Is(err, profile.ErrMainProcessRequired),
		errors.Is(err, gateway.ErrMTUOutOfRange),
		errors.Is(err, gateway.ErrUnknownPlan):
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
