package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrItemLoginRequired indicates the provider rejected the stored credentials
// for a linked item. The user must re-authenticate before sync can resume.
var ErrItemLoginRequired = errors.New("item login required")

// ErrSyncInProgress indicates another sync for the same linked item is already running.
var ErrSyncInProgress = errors.New("sync already in progress for item")
