package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	crossPath   = "/api/crosses/{cross}"
	missionPath = crossPath + "/missions/{mission}"
	promptPath  = missionPath + "/prompts/{prompt}"
)

type crossParams struct {
	Cross string `path:"cross" description:"Cross ID or \"current\" for the latest started cross."`
}

type missionParams struct {
	Cross   string `path:"cross"`
	Mission int    `path:"mission" description:"Mission serial number."`
}

type promptParams struct {
	Cross   string `path:"cross"`
	Mission int    `path:"mission"`
	Prompt  int    `path:"prompt" description:"Prompt serial number."`
}

type submitAnswerInput struct {
	Cross   string  `path:"cross"`
	Mission int     `path:"mission"`
	Text    *string `json:"text" required:"true" description:"Compared verbatim with the mission answer."`
}

type eventsParams struct {
	Token string `query:"token" required:"true"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Hightech Cross API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for orienteering crosses: missions, answers, prompts and the leaderboard.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Team login")
	postLogin.SetDescription("Authenticate a team by name and password. Returns a session token.")
	postLogin.AddReqStructure(LoginRequest{})
	postLogin.AddRespStructure(LoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Team logout")
	postLogout.SetDescription("Revokes the Bearer session token.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(postLogout)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of the team's answers and prompt requests. Pass token as query parameter.")
	getEvents.AddReqStructure(eventsParams{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	// GET /api/crosses
	listCrosses, _ := r.NewOperationContext(http.MethodGet, "/api/crosses")
	listCrosses.SetSummary("List crosses")
	listCrosses.SetDescription("Returns the crosses the team takes part in. Requires Bearer token.")
	listCrosses.AddRespStructure([]CrossSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listCrosses.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listCrosses)

	// GET /api/crosses/{cross}
	getCross, _ := r.NewOperationContext(http.MethodGet, crossPath)
	getCross.SetSummary("Get cross")
	getCross.SetDescription("Returns the cross with its ranked leaderboard. Requires Bearer token.")
	getCross.AddReqStructure(crossParams{})
	getCross.AddRespStructure(CrossResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCross.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getCross.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getCross)

	// GET /api/crosses/{cross}/missions
	listMissions, _ := r.NewOperationContext(http.MethodGet, crossPath+"/missions")
	listMissions.SetSummary("List missions")
	listMissions.SetDescription("Returns the missions with the team's progress. Hidden until the cross starts.")
	listMissions.AddReqStructure(crossParams{})
	listMissions.AddRespStructure([]MissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listMissions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listMissions)

	// GET .../missions/{mission}
	getMission, _ := r.NewOperationContext(http.MethodGet, missionPath)
	getMission.SetSummary("Get mission")
	getMission.SetDescription("Returns one mission with the team's progress.")
	getMission.AddReqStructure(missionParams{})
	getMission.AddRespStructure(MissionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMission)

	// GET .../answers
	listAnswers, _ := r.NewOperationContext(http.MethodGet, missionPath+"/answers")
	listAnswers.SetSummary("List answers")
	listAnswers.SetDescription("Returns the team's answer history for the mission, oldest first.")
	listAnswers.AddReqStructure(missionParams{})
	listAnswers.AddRespStructure([]AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listAnswers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listAnswers)

	// POST .../answers
	postAnswer, _ := r.NewOperationContext(http.MethodPost, missionPath+"/answers")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Checks an answer. A wrong text is charged once; a finished mission accepts anything for free.")
	postAnswer.AddReqStructure(submitAnswerInput{})
	postAnswer.AddRespStructure(SubmitAnswerResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// GET .../prompts
	listPrompts, _ := r.NewOperationContext(http.MethodGet, missionPath+"/prompts")
	listPrompts.SetSummary("List prompts")
	listPrompts.SetDescription("Returns the mission prompts. Text is null until the team requests the prompt.")
	listPrompts.AddReqStructure(missionParams{})
	listPrompts.AddRespStructure([]PromptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listPrompts.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listPrompts)

	// GET .../prompts/{prompt}
	getPrompt, _ := r.NewOperationContext(http.MethodGet, promptPath)
	getPrompt.SetSummary("Get prompt")
	getPrompt.SetDescription("Returns one prompt. Text is null until the team requests it.")
	getPrompt.AddReqStructure(promptParams{})
	getPrompt.AddRespStructure(PromptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPrompt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPrompt)

	// PUT .../prompts/{prompt}
	putPrompt, _ := r.NewOperationContext(http.MethodPut, promptPath)
	putPrompt.SetSummary("Request prompt")
	putPrompt.SetDescription("Unlocks a prompt. The first request costs 15 minutes of penalty.")
	putPrompt.AddReqStructure(promptParams{})
	putPrompt.AddRespStructure(PromptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putPrompt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	putPrompt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(putPrompt)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
