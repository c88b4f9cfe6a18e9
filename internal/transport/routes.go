package transport

import (
	tg "github.com/m3rciful/subbot/core/telegram"
	"github.com/m3rciful/subbot/core/telegram/commands"
	"github.com/m3rciful/subbot/core/telegram/router"
	"github.com/m3rciful/subbot/core/telegram/ui"
	"github.com/m3rciful/subbot/internal/flows"
)

var _ router.FSM = (*Adapter)(nil)
var _ ui.FallbackProvider = (*Adapter)(nil)

// RouteOptions configures Routes.
type RouteOptions struct {
	// OwnerID guards owner-only commands; zero leaves the check to the engine.
	OwnerID int64
	// Stats exposes the owner-only /stats command.
	Stats bool
}

// RegisterCommands adds the bot commands to the registry. The create command
// also answers to its legacy alias.
func (a *Adapter) RegisterCommands(opts RouteOptions) {
	a.reg.RegisterCommand(flows.CmdStart, commands.Command{
		Handler:     a.command(flows.CmdStart),
		Description: "Register and show the welcome message",
	})
	a.reg.RegisterCommand(flows.CmdCreateBot, commands.Command{
		Handler:     a.command(flows.CmdCreateBot),
		Description: "Create a new bot from its token",
		Aliases:     []string{flows.CmdCreateBotAlias},
	})
	a.reg.RegisterCommand(flows.CmdMyBots, commands.Command{
		Handler:     a.command(flows.CmdMyBots),
		Description: "List and manage your bots",
	})
	if opts.Stats {
		a.reg.RegisterCommand(flows.CmdStats, commands.Command{
			Handler:     a.command(flows.CmdStats),
			Description: "Show user and bot counts",
			AdminOnly:   true,
		})
	}
}

// Routes registers the commands and returns every telebot route of the bot.
func (a *Adapter) Routes(opts RouteOptions) []tg.Route {
	a.RegisterCommands(opts)

	var fb ui.FallbackProvider = a
	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		AdminID:       opts.OwnerID,
		OnAdminReject: fb.UnknownText(),
	})
	routes = append(routes, router.TextRoutes(a, a.reg, router.TextOptions{
		UnknownText:     fb.UnknownText(),
		UnknownDocument: fb.UnknownDocument(),
	})...)
	routes = append(routes, router.CallbackRoute(router.CallbackOptions{
		FSM:      a,
		NotFound: fb.UnknownCallback(),
	}))
	return routes
}
