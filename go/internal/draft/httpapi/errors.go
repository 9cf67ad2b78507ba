package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[drafterr.Kind]int{
	drafterr.KindNotFound:       http.StatusNotFound,
	drafterr.KindUnauthorized:   http.StatusForbidden,
	drafterr.KindInvalidState:   http.StatusBadRequest,
	drafterr.KindOutOfTurn:      http.StatusBadRequest,
	drafterr.KindAlreadyDrafted: http.StatusConflict,
	drafterr.KindValidation:     http.StatusBadRequest,
	drafterr.KindConflict:       http.StatusConflict,
}

// StatusFor returns the HTTP status for a drafterr kind.
func StatusFor(kind drafterr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeError(c *gin.Context, err error) {
	kind := drafterr.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError || kind == drafterr.KindConflict {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("draft request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:  string(kind),
		Error: drafterr.Message(err),
	})
}
