package handler

import (
	"errors"
	"net/http"

	"GraphQueryAPI/internal/connection"
	"GraphQueryAPI/internal/filter"
	"GraphQueryAPI/internal/gid"
)

// statusForError переводит ошибки ядра в HTTP-статусы. Ошибки источника
// данных здесь не перехватываются: политика ретраев — дело транспортного
// слоя, ядро отдаёт их как 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, gid.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, gid.ErrMalformedCursor),
		errors.Is(err, gid.ErrMalformedIdentifier),
		errors.Is(err, connection.ErrInvalidArguments),
		errors.Is(err, filter.ErrUnsupportedOperator),
		errors.Is(err, filter.ErrInvalidIdentifierFilter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
