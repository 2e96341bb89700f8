/*
Package errors provides semantic error types for the modelstore library.

The package defines the failure taxonomy shared by the composition layer and
the backend adapters. Each typed error matches a sentinel through errors.Is,
so callers can branch on the category without caring about the concrete type.

Common Errors:

	var (
	    ErrNotFound           = errors.New("model not found")
	    ErrInvalidInput       = errors.New("invalid input")
	    ErrMissingStorage     = errors.New("missing storage")
	    ErrUnsupported        = errors.New("unsupported operation")
	    ErrBackendUnavailable = errors.New("backend unavailable")
	)

Usage:

	storage, err := factory.GetStorage("products")
	if err != nil {
	    if errors.IsMissingStorage(err) {
	        // nothing registered under that name
	    }
	    return err
	}

	// Adapters wrap transport failures so the cause stays reachable
	err := errors.NewBackendUnavailableError("redis", cause)

MissingStorageError, UnsupportedError and BackendUnavailableError are never
swallowed by chains or managers; they reach the caller unmodified.
*/
package errors
