package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/assistant"
	"github.com/trezcool/sejali/core/career"
)

type assistantApi struct {
	svc      *assistant.Service
	logger   core.Logger
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := assistantApi{svc: deps.AssistantSvc, logger: deps.Logger, validate: deps.Validate}

	g.POST("/ai/chat", api.chat, auth)
	g.POST("/career/analyze", api.analyzeCareer, auth)
}

// eventStream writes server-sent events. Headers are only sent with the first event,
// so a failure before any output still gets a regular error response.
type eventStream struct {
	res     *echo.Response
	started bool
}

func (es *eventStream) send(payload interface{}) error {
	if !es.started {
		h := es.res.Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		es.res.WriteHeader(http.StatusOK)
		es.started = true
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(es.res, "data: %s\n\n", data); err != nil {
		return err
	}
	es.res.Flush()
	return nil
}

func (api *assistantApi) chat(ctx echo.Context) error {
	if !api.svc.Enabled() {
		return assistant.ErrNotConfigured
	}

	var data assistant.ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stream := &eventStream{res: ctx.Response()}
	err := api.svc.Chat(ctx.Request().Context(), contextCaps(ctx), contextUser(ctx).ID, data, func(content string) error {
		return stream.send(echo.Map{"content": content})
	})
	if err != nil {
		if !stream.started {
			return errors.Wrap(err, "chatting")
		}
		api.logger.Error("AI chat stream failed", err, contextUser(ctx))
		return stream.send(echo.Map{"error": "AI error"})
	}
	return stream.send(echo.Map{"done": true})
}

func (api *assistantApi) analyzeCareer(ctx echo.Context) error {
	var data career.Questionnaire
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Questionnaire")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, career.Analyze(data.Answers))
}
