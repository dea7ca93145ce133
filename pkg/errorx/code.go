package errorx

import (
	"net/http"
	"sync"
)

// Coder describes a registered error code: the business code, the HTTP status
// it maps to, the external message, and an optional reference document.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

type defaultCoder struct {
	code int
	http int
	msg  string
	ref  string
}

func (c defaultCoder) Code() int         { return c.code }
func (c defaultCoder) HTTPStatus() int   { return c.http }
func (c defaultCoder) String() string    { return c.msg }
func (c defaultCoder) Reference() string { return c.ref }

var (
	codeMu sync.Mutex
	codes  = map[int]Coder{}

	// unknownCoder is returned for errors that carry no registered code.
	unknownCoder = defaultCoder{code: 1, http: http.StatusInternalServerError, msg: "An internal server error occurred"}
)

// Register registers a coder, overwriting any previous registration of the
// same code. Code 1 is reserved for the unknown error.
func Register(coder Coder) {
	if coder.Code() == 1 {
		panic("code '1' is reserved as the unknown error code")
	}

	codeMu.Lock()
	defer codeMu.Unlock()
	codes[coder.Code()] = coder
}

// MustRegister registers a coder and panics if the code is already taken.
// Intended for init-time registration of a module's error table.
func MustRegister(coder Coder) {
	if coder.Code() == 1 {
		panic("code '1' is reserved as the unknown error code")
	}

	codeMu.Lock()
	defer codeMu.Unlock()
	if _, ok := codes[coder.Code()]; ok {
		panic("code already registered")
	}
	codes[coder.Code()] = coder
}

// ParseCoder resolves err to its registered Coder. Errors without a code
// resolve to the unknown coder; a nil error resolves to nil.
func ParseCoder(err error) Coder {
	if err == nil {
		return nil
	}
	if wc, ok := err.(*withCode); ok { //nolint:errorlint // top-level code wins
		codeMu.Lock()
		defer codeMu.Unlock()
		if coder, ok := codes[wc.code]; ok {
			return coder
		}
	}
	return unknownCoder
}

// IsCode reports whether any error in err's chain carries the given code.
func IsCode(err error, code int) bool {
	for err != nil {
		if wc, ok := err.(*withCode); ok { //nolint:errorlint
			if wc.code == code {
				return true
			}
			err = wc.cause
			continue
		}
		return false
	}
	return false
}
