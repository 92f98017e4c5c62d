// Package handler binds the lobby and chat services to socket event names.
package handler

import (
	"errors"
	"net/http"

	"github.com/kwhittier/lobbyhub/internal/dispatch"
	"github.com/kwhittier/lobbyhub/internal/model"
)

// MapError translates domain errors into client-reportable failures. Errors
// it does not recognise stay server errors and are not shown to clients.
func MapError(err error) *dispatch.ClientError {
	switch {
	case errors.Is(err, model.ErrLobbyNotFound),
		errors.Is(err, model.ErrPlayerNotFound),
		errors.Is(err, model.ErrRoomNotFound):
		return dispatch.NewClientErrorWithCode(err.Error(), http.StatusNotFound)
	case errors.Is(err, model.ErrInvalidSession):
		return dispatch.NewClientErrorWithCode(err.Error(), http.StatusUnauthorized)
	case errors.Is(err, model.ErrNotHost):
		return dispatch.NewClientErrorWithCode(err.Error(), http.StatusForbidden)
	case errors.Is(err, model.ErrLobbyFull),
		errors.Is(err, model.ErrLobbyClosed),
		errors.Is(err, model.ErrBadPassword),
		errors.Is(err, model.ErrPasswordRequired),
		errors.Is(err, model.ErrRoomClosed):
		return dispatch.NewClientError(err.Error())
	default:
		return nil
	}
}
