package app

import (
	"errors"
	"net/http"

	"github.com/felixbrock/okrs/internal/domain"
)

type ErrCtx struct {
	Code  int
	Title string
	Msg   string
}

func get400(msg string) ErrCtx {
	return ErrCtx{
		Code:  400,
		Title: "Bad request",
		Msg:   msg,
	}
}

func get404() ErrCtx {
	return ErrCtx{
		Code:  404,
		Title: "Not found",
		Msg:   "Sorry, that objective or key result no longer exists.",
	}
}

func get502() ErrCtx {
	return ErrCtx{
		Code:  502,
		Title: "Service unreachable",
		Msg:   "Sorry, we couldn't reach the OKR service. Please try again.",
	}
}

func get500() ErrCtx {
	return ErrCtx{
		Code:  500,
		Title: "Internal server error",
		Msg:   "Sorry, there was an internal server error.",
	}
}

// errCtxFor maps an error to the message shown to the user.
func errCtxFor(err error) ErrCtx {
	var validationErr *domain.ValidationError
	var partialErr *PartialCommitError

	switch {
	case errors.As(err, &validationErr):
		return get400(validationErr.Msg)
	case errors.As(err, &partialErr):
		return ErrCtx{
			Code:  http.StatusBadGateway,
			Title: "Draft partially saved",
			Msg:   partialErr.Error(),
		}
	case domain.IsNotFound(err):
		return get404()
	case errors.Is(err, domain.ErrTransport):
		return get502()
	case errors.Is(err, domain.ErrServer):
		ctx := get502()
		ctx.Title = "OKR service error"
		ctx.Msg = "The OKR service rejected the request. Nothing was changed locally."
		return ctx
	default:
		return get500()
	}
}
