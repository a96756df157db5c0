package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepstage/prepstage/internal/common/httpx"
	"github.com/prepstage/prepstage/internal/interviewsrv/voice"
)

type handlerParam struct {
	Method  string
	Path    string
	Handler httpx.RequestHandler
}

// Router maps the session operations onto HTTP routes. Mounted by the server
// under /sessions.
func Router(manager *Manager, agent *voice.Agent) chi.Router {
	a := &api{manager: manager, voice: agent}

	handlers := []handlerParam{
		{http.MethodPost, "/", a.startSession},
		{http.MethodGet, "/{sessionID}", a.getSession},
		{http.MethodGet, "/{sessionID}/question/current", a.currentQuestion},
		{http.MethodPost, "/{sessionID}/question/next", a.nextQuestion},
		{http.MethodPost, "/{sessionID}/answer", a.submitAnswer},
		{http.MethodPost, "/{sessionID}/chat", a.chat},
		{http.MethodPost, "/{sessionID}/complete", a.complete},
		{http.MethodPost, "/{sessionID}/cancel", a.cancel},
		{http.MethodPatch, "/{sessionID}/state", a.updateState},
		{http.MethodGet, "/{sessionID}/transcript", a.transcript},
		{http.MethodPost, "/{sessionID}/interaction", a.addInteraction},
		{http.MethodPost, "/{sessionID}/voice/greeting", a.voiceGreeting},
		{http.MethodPost, "/{sessionID}/voice/turn", a.voiceTurn},
	}

	r := chi.NewRouter()
	for _, h := range handlers {
		r.Method(h.Method, h.Path, httpx.WrapHandler(h.Handler))
	}
	return r
}
