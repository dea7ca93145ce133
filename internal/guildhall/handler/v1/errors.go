package v1

import (
	"net/http"

	"github.com/mverel/guildmaster/pkg/errorx"
)

// Guildhall handler error codes.
// Code format: 1XXYYZ
//   - 1:  module prefix (guildhall handler)
//   - XX: resource group (01=epic, 02=registry)
//   - YY: sequential error number
//   - Z:  reserved (0)

const (
	// Epic errors (1001xx).
	ErrNoActiveEpic = 100101
	ErrEpicNotFound = 100102
	ErrEpicRead     = 100103

	// Registry errors (1002xx).
	ErrEntryNotFound = 100201
	ErrRegistryList  = 100202
	ErrEntryRead     = 100203
)

func init() {
	// Epic.
	errorx.MustRegister(newCoder(ErrNoActiveEpic, http.StatusNotFound, "No epic is active"))
	errorx.MustRegister(newCoder(ErrEpicNotFound, http.StatusNotFound, "Epic not found"))
	errorx.MustRegister(newCoder(ErrEpicRead, http.StatusInternalServerError, "Failed to read epic"))

	// Registry.
	errorx.MustRegister(newCoder(ErrEntryNotFound, http.StatusNotFound, "Registry entry not found"))
	errorx.MustRegister(newCoder(ErrRegistryList, http.StatusInternalServerError, "Failed to list registry entries"))
	errorx.MustRegister(newCoder(ErrEntryRead, http.StatusInternalServerError, "Failed to read registry entry"))
}

type coder struct {
	code int
	http int
	msg  string
}

func newCoder(code, httpStatus int, msg string) *coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return "" }
