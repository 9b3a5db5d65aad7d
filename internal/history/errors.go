package history

import (
	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
)

// Sentinel errors for history operations. Errors returned by the store wrap
// the underlying cause and match these with errors.Is.
var (
	ErrOpenFailed   = errors.HistoryError("could not open history database").Build()
	ErrSchemaFailed = errors.HistoryError("failed to initialize history schema").Build()
	ErrRecordFailed = errors.HistoryError("failed to record build").Build()
	ErrQueryFailed  = errors.HistoryError("failed to query build history").Build()
)

func wrap(err error, sentinel *errors.ClassifiedError) error {
	return errors.WrapError(err, errors.CategoryHistory, sentinel.Message()).Build()
}
