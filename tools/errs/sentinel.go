package errs

// Error codes grouped by phase: 1xxx connect-time auth, 2xxx per-event
// authorization, 3xxx validation, 5xxx internal/transport.
const (
	codeUnknown = 0

	CodeTokenMissing = 1001
	CodeTokenInvalid = 1002

	CodeNotAMember = 2001
	CodeNotOwner   = 2002
	CodeForbidden  = 2003

	CodeMalformedPayload = 3001

	CodeInternal  = 5001
	CodeTransport = 5002
)

// Connect-time failures refuse the connection before any session exists.
var (
	ErrTokenMissing = NewCodeError(CodeTokenMissing, "UNAUTHORIZED")
	ErrTokenInvalid = NewCodeError(CodeTokenInvalid, "INVALID_TOKEN")
)

// Per-event failures drop the single event and leave the connection up.
var (
	ErrNotAMember       = NewCodeError(CodeNotAMember, "NOT_A_MEMBER")
	ErrNotOwner         = NewCodeError(CodeNotOwner, "NOT_OWNER")
	ErrForbidden        = NewCodeError(CodeForbidden, "FORBIDDEN")
	ErrMalformedPayload = NewCodeError(CodeMalformedPayload, "MALFORMED_PAYLOAD")
)

var (
	ErrInternal  = NewCodeError(CodeInternal, "INTERNAL_ERROR")
	ErrTransport = NewCodeError(CodeTransport, "TRANSPORT_ERROR")
)
