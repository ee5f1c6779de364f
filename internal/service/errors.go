package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/nurpe/tender-award/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

const (
	CodePackageNotFound        = "PACKAGE_NOT_FOUND"
	CodeProjectNotFound        = "PROJECT_NOT_FOUND"
	CodeSupplierNotFound       = "SUPPLIER_NOT_FOUND"
	CodeSubmissionNotFound     = "SUBMISSION_NOT_FOUND"
	CodeContractNotFound       = "CONTRACT_NOT_FOUND"
	CodeNotInvited             = "NOT_INVITED"
	CodeComplianceMissing      = "COMPLIANCE_MISSING"
	CodeNoPackageLines         = "NO_PACKAGE_LINES"
	CodeLineIDsInvalid         = "LINE_IDS_INVALID"
	CodeLinesContracted        = "LINES_ALREADY_CONTRACTED"
	CodeBudgetLinesContracted  = "BUDGET_LINES_ALREADY_CONTRACTED"
	CodeAlreadyAwarded         = "ALREADY_AWARDED"
	CodeAlreadySourced         = "ALREADY_SOURCED"
	CodeOverrideReasonRequired = "OVERRIDE_REASON_REQUIRED"
	CodeOverrideNotPermitted   = "OVERRIDE_NOT_PERMITTED"
	CodeInvalidInput           = "INVALID_INPUT"
)

// Error is a domain failure with a machine-readable code. It unwraps to its Kind.
type Error struct {
	Kind       error
	Code       string
	Message    string
	Missing    []string
	MissingIDs []uuid.UUID
	Conflicts  []model.LineConflict
	Mechanisms []model.SourcingMechanism
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func notFound(code, message string) *Error {
	return newError(ErrNotFound, code, message)
}

func invalidInput(code, message string) *Error {
	return newError(ErrInvalidInput, code, message)
}

func conflict(code, message string) *Error {
	return newError(ErrConflict, code, message)
}

// CodeOf returns the machine code carried by err, if any.
func CodeOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
