package session

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/prepstage/prepstage/internal/common/httpx"
	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/voice"
)

// maxAudioUpload bounds a voice turn request body.
const maxAudioUpload = 15 << 20

// audioContentType is the container produced by speech synthesis.
const audioContentType = "audio/mpeg"

type api struct {
	manager *Manager
	voice   *voice.Agent
}

func (a *api) actorFromRequest(r *http.Request) (*Actor, error) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, ErrSessionNotFound.Msg("invalid session id")
	}
	return a.manager.Get(r.Context(), id)
}

type startSessionReq struct {
	UserID         string `json:"userId"`
	Mode           string `json:"mode"`
	JobType        string `json:"jobType"`
	JobTitle       string `json:"jobTitle,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
	Seniority      string `json:"seniority,omitempty"`
	Difficulty     string `json:"difficulty"`
	Duration       int    `json:"duration"` // minutes
}

func (a *api) startSession(r *http.Request) (*httpx.Response, error) {
	var req startSessionReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}

	sess, err := a.manager.StartSession(r.Context(), StartRequest{
		UserID: req.UserID,
		Mode:   entity.InterviewMode(req.Mode),
		Job: entity.JobContext{
			Type:        req.JobType,
			Title:       req.JobTitle,
			Description: req.JobDescription,
			Seniority:   req.Seniority,
		},
		Difficulty:      req.Difficulty,
		PlannedDuration: time.Duration(req.Duration) * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   "/sessions/" + sess.ID.String(),
		Response:   map[string]any{"session": sess},
	}, nil
}

func (a *api) getSession(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": actor.State()},
	}, nil
}

func (a *api) currentQuestion(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"question": actor.CurrentQuestion()},
	}, nil
}

func (a *api) nextQuestion(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	q, sess, err := actor.NextQuestion(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"question": q, "session": sess},
	}, nil
}

type submitAnswerReq struct {
	AnswerText   string                 `json:"answerText"`
	ResponseTime int64                  `json:"responseTime"` // milliseconds
	Code         *entity.CodeSubmission `json:"codeSubmission,omitempty"`
}

func (a *api) submitAnswer(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}

	var req submitAnswerReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.AnswerText == "" {
		return nil, ErrInvalidRequest.Msg("answerText is required")
	}

	sess, answer, err := actor.SubmitAnswer(r.Context(), AnswerRequest{
		Text:         req.AnswerText,
		ResponseTime: time.Duration(req.ResponseTime) * time.Millisecond,
		Code:         req.Code,
	})
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": sess, "answer": answer},
	}, nil
}

type chatReq struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (a *api) chat(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}

	var req chatReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}
	if req.Message == "" {
		return nil, ErrInvalidRequest.Msg("message is required")
	}

	reply, sess, err := actor.ProcessChat(r.Context(), req.Message, req.Code)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"response": reply, "session": sess},
	}, nil
}

func (a *api) complete(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	sess, err := actor.Complete(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": sess},
	}, nil
}

func (a *api) cancel(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	sess, err := actor.Cancel(r.Context())
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": sess},
	}, nil
}

func (a *api) updateState(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := httpx.GetRequestData(r, &fields); err != nil {
		return nil, err
	}

	sess, err := actor.UpdateState(r.Context(), fields)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": sess},
	}, nil
}

func (a *api) transcript(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	sess, entries := actor.Transcript()
	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   map[string]any{"session": sess, "transcript": entries},
	}, nil
}

type interactionReq struct {
	UserText string `json:"userText"`
	AIText   string `json:"aiText"`
}

func (a *api) addInteraction(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}

	var req interactionReq
	if err := httpx.GetRequestData(r, &req); err != nil {
		return nil, err
	}

	actor.RecordInteraction(r.Context(), req.UserText, req.AIText)
	return &httpx.Response{
		StatusCode: http.StatusAccepted,
		Response:   map[string]any{"ack": true},
	}, nil
}

// turnContext builds the voice context from the actor's current state.
func turnContext(actor *Actor, persona string) voice.TurnContext {
	sess := actor.State()
	tc := voice.TurnContext{
		Persona:        persona,
		Mode:           sess.Mode,
		JobTitle:       sess.Job.Title,
		JobDescription: sess.Job.Description,
		CurrentCode:    sess.CurrentCode,
	}
	if q := sess.CurrentQuestion(); q != nil {
		tc.QuestionText = q.Title + "\n" + q.Prompt
	}
	return tc
}

func (a *api) voiceGreeting(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	if actor.State().Status != entity.StatusInProgress {
		return nil, ErrInvalidStateTransition.Msg("session is not in_progress")
	}

	audio, _, err := a.voice.Greeting(r.Context(), turnContext(actor, r.URL.Query().Get("persona")), actor)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: audioContentType,
		Raw:         audio,
	}, nil
}

func (a *api) voiceTurn(r *http.Request) (*httpx.Response, error) {
	actor, err := a.actorFromRequest(r)
	if err != nil {
		return nil, err
	}
	if actor.State().Status != entity.StatusInProgress {
		return nil, ErrInvalidStateTransition.Msg("session is not in_progress")
	}

	audio, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxAudioUpload))
	if err != nil {
		return nil, httpx.ErrUnableToReadRequest()
	}
	if len(audio) == 0 {
		return nil, ErrInvalidRequest.Msg("audio body is required")
	}

	reply, _, _, err := a.voice.Turn(r.Context(), audio, turnContext(actor, r.URL.Query().Get("persona")), actor)
	if err != nil {
		return nil, err
	}
	return &httpx.Response{
		StatusCode:  http.StatusOK,
		ContentType: audioContentType,
		Raw:         reply,
	}, nil
}
