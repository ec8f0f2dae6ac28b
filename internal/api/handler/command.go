package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/api/request"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/model"
)

// CommandHandler runs chat commands sent over plain HTTP
type CommandHandler struct {
	bot    *bot.Bot
	access Access
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(b *bot.Bot, access Access) *CommandHandler {
	return &CommandHandler{
		bot:    b,
		access: access,
	}
}

// Run handles POST /api/v1/commands
func (h *CommandHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req request.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	user, ok := requireID(w, "user", req.User)
	if !ok {
		return
	}
	channel, ok := requireID(w, "channel", req.Channel)
	if !ok {
		return
	}

	name, args, ok := bot.Parse(req.Text)
	if !ok {
		apierr.WriteError(w, apierr.NewInvalidRequestError("text must start with "+bot.Prefix))
		return
	}

	reply := h.bot.Dispatch(r.Context(), bot.Invocation{
		Command:     name,
		Args:        args,
		User:        model.PlayerID(user),
		DisplayName: req.DisplayName,
		Channel:     model.ChannelID(channel),
		Scope:       model.ScopeID(req.Scope),
		Anonymous:   !h.access.Authenticated,
	})

	response.JSON(w, http.StatusOK, response.CommandReplyFromMessage(name, reply))
}
