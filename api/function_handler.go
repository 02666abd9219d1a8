package api

import (
	"net/http"

	"github.com/rpupo63/projecthub-backend/functions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// functionHandler exposes backend callables with the callable envelope:
// {"data": ...} in, {"result": ...} out.
type functionHandler struct {
	responder Responder
	logger    zerolog.Logger
	views     *functions.Views
}

func newFunctionHandler(views *functions.Views) functionHandler {
	logger := log.With().Str("handlerName", "functionHandler").Logger()

	return functionHandler{
		responder: NewResponder(logger),
		logger:    logger,
		views:     views,
	}
}

type callRequest[T any] struct {
	Data T `json:"data"`
}

type callResponse[T any] struct {
	Result T `json:"result"`
}

func (h functionHandler) recordProjectView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req callRequest[functions.ViewRequest]
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		resp, err := h.views.RecordProjectView(r.Context(), identityFromCtx(r.Context()), req.Data)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, callResponse[*functions.ViewResponse]{Result: resp})
	}
}
