package httperr

import "errors"

// Kind groups business errors by the HTTP status they map to.
type Kind int

const (
	KindInvalid Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindUpstream
)

type BusinessError struct {
	Code string
	Kind Kind
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code, Kind: KindInvalid}
}

func ErrNotFound(code string) error {
	return BusinessError{Code: code, Kind: KindNotFound}
}

func ErrConflict(code string) error {
	return BusinessError{Code: code, Kind: KindConflict}
}

func ErrUnauthorized(code string) error {
	return BusinessError{Code: code, Kind: KindUnauthorized}
}

func ErrUpstream(code string) error {
	return BusinessError{Code: code, Kind: KindUpstream}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// AsBusiness unwraps err into a BusinessError if it carries one.
func AsBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}

func IsKind(err error, kind Kind) bool {
	be, ok := AsBusiness(err)
	return ok && be.Kind == kind
}
