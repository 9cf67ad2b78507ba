package rpc

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/rs/zerolog/log"
)

// ErrorKindHeader carries the drafterr kind on error responses so clients
// can tell NOT_YOUR_TURN from INVALID_STATE, which share a connect code.
const ErrorKindHeader = "Draft-Error-Kind"

var kindCodes = map[drafterr.Kind]connect.Code{
	drafterr.KindNotFound:       connect.CodeNotFound,
	drafterr.KindUnauthorized:   connect.CodePermissionDenied,
	drafterr.KindInvalidState:   connect.CodeFailedPrecondition,
	drafterr.KindOutOfTurn:      connect.CodeFailedPrecondition,
	drafterr.KindAlreadyDrafted: connect.CodeAlreadyExists,
	drafterr.KindValidation:     connect.CodeInvalidArgument,
	drafterr.KindConflict:       connect.CodeAborted,
}

// CodeFor returns the connect code for a drafterr kind.
func CodeFor(kind drafterr.Kind) connect.Code {
	if code, ok := kindCodes[kind]; ok {
		return code
	}
	return connect.CodeInternal
}

func toConnectError(procedure string, err error) error {
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr
	}

	kind := drafterr.KindOf(err)
	code := CodeFor(kind)
	if code == connect.CodeInternal || code == connect.CodeAborted {
		log.Error().Err(err).Str("procedure", procedure).Msg("draft rpc failed")
	}

	out := connect.NewError(code, errors.New(drafterr.Message(err)))
	out.Meta().Set(ErrorKindHeader, string(kind))
	return out
}

// fromConnectError turns a server error back into a drafterr.Error when the
// server classified it.
func fromConnectError(err error) error {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return err
	}
	kind := cerr.Meta().Get(ErrorKindHeader)
	if kind == "" {
		return err
	}
	return &drafterr.Error{Kind: drafterr.Kind(kind), Message: cerr.Message(), Err: err}
}
