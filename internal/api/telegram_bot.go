// Package api provides handlers for external APIs and interfaces
package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/normalize"
	"github.com/abelzeko/floodcast/internal/threshold"
	"github.com/abelzeko/floodcast/internal/usecases"
)

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/levels [percent] [all|alert-only] - Water levels of all stations\n" +
	"/alerts [percent] - Stations at or above percent of their danger level\n" +
	"/station <name> - Water level of one station\n" +
	"/rainfall [month] - Maximum rainfall by station for a month\n" +
	"/history <station> [| month] - Rainfall history of a station\n" +
	"/compare <station> [| month] - Latest rainfall against the historical maximum\n" +
	"/reload - Reload the datasets\n" +
	"/help - Show this help message"

// replyError is an input problem whose text is sent back to the user as-is
type replyError string

func (e replyError) Error() string { return string(e) }

// Responder turns commands and free text into reply text
type Responder struct {
	dashboard      *usecases.DashboardUseCase
	defaultPercent float64
}

// NewResponder creates a responder that alerts at defaultPercent when the user gives no threshold
func NewResponder(dashboard *usecases.DashboardUseCase, defaultPercent float64) *Responder {
	return &Responder{dashboard: dashboard, defaultPercent: defaultPercent}
}

// HandleCommand processes commands like /start, /help, etc.
func (r *Responder) HandleCommand(command, args string) string {
	args = strings.TrimSpace(args)
	switch command {
	case "start":
		return "Welcome to FloodCast! Use /alerts to see stations near their danger level or /help for more information."

	case "help":
		return helpText

	case "levels", "alerts":
		mode := threshold.FilterAll
		if command == "alerts" {
			mode = threshold.FilterAlertOnly
		}
		percent, mode, err := r.parseLevelsArgs(args, mode)
		if err != nil {
			return err.Error()
		}
		return r.respond(r.dashboard.LevelsReport(percent, mode))

	case "station":
		if args == "" {
			return "Please specify a station name. Example: /station Sylhet"
		}
		return r.respond(r.dashboard.StationReport(args, r.defaultPercent))

	case "rainfall":
		month, err := r.parseMonth(args)
		if err != nil {
			return err.Error()
		}
		return r.respond(r.dashboard.RainfallReport(month))

	case "history", "compare":
		station, month, err := r.parseStationMonth(args)
		if err != nil {
			return err.Error()
		}
		if command == "history" {
			return r.respond(r.dashboard.StationRainfallReport(month, station))
		}
		return r.respond(r.dashboard.ComparisonReport(station, month))

	case "reload":
		r.dashboard.Invalidate()
		return "Datasets will be reloaded on the next request."

	default:
		return "Unknown command. Use /help to see available commands."
	}
}

// HandleText processes regular messages
func (r *Responder) HandleText(ctx context.Context, text string) string {
	reply, err := r.dashboard.HandleNaturalLanguageQuery(ctx, text, r.defaultPercent)
	if err != nil {
		log.Errorf("Error handling text message: %v", err)
		return "I don't understand. Use /help to see available commands."
	}
	return reply
}

func (r *Responder) respond(text string, err error) string {
	if err != nil {
		log.Errorf("Error building reply: %v", err)
		return "Error fetching flood data. Please try again later."
	}
	return text
}

func (r *Responder) parsePercent(args string) (float64, error) {
	if args == "" {
		return r.defaultPercent, nil
	}
	percent, err := strconv.ParseFloat(strings.TrimSuffix(args, "%"), 64)
	if err != nil || threshold.ValidatePercent(percent) != nil {
		return 0, replyError("Threshold must be a percentage between 0 and 100, e.g. /alerts 80")
	}
	return percent, nil
}

// parseLevelsArgs reads "[percent] [all|alert-only]" in either order
func (r *Responder) parseLevelsArgs(args string, mode threshold.FilterMode) (float64, threshold.FilterMode, error) {
	var percentArg string
	for _, field := range strings.Fields(args) {
		if m, err := threshold.ParseFilterMode(field); err == nil {
			mode = m
			continue
		}
		if percentArg != "" {
			return 0, mode, replyError("Usage: /levels [percent] [all|alert-only], e.g. /levels 80 alert-only")
		}
		percentArg = field
	}
	percent, err := r.parsePercent(percentArg)
	if err != nil {
		return 0, mode, err
	}
	return percent, mode, nil
}

func (r *Responder) parseMonth(args string) (time.Month, error) {
	if args == "" {
		return r.dashboard.DefaultMonth(), nil
	}
	month, err := normalize.ParseMonth(args)
	if err != nil {
		return 0, replyError(fmt.Sprintf("Unknown month '%s'. Use a name like June or a number from 1 to 12.", args))
	}
	return month, nil
}

// parseStationMonth splits "<station> | <month>"; station names may contain spaces
func (r *Responder) parseStationMonth(args string) (string, time.Month, error) {
	station, monthArg, _ := strings.Cut(args, "|")
	station = strings.TrimSpace(station)
	if station == "" {
		return "", 0, replyError("Please specify a station name. Example: /compare Sylhet | June")
	}
	month, err := r.parseMonth(strings.TrimSpace(monthArg))
	if err != nil {
		return "", 0, err
	}
	return station, month, nil
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot       *tgbotapi.BotAPI
	responder *Responder
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, responder *Responder) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramBot{
		bot:       bot,
		responder: responder,
	}, nil
}

// Start begins listening for and handling Telegram messages until ctx is done
func (t *TelegramBot) Start(ctx context.Context) {
	log.Infof("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Info("Bot is now listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			log.Info("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}

			log.Infof("Received message from %s (ID: %d): %s",
				update.Message.From.UserName,
				update.Message.From.ID,
				update.Message.Text)

			t.handleMessage(ctx, update)
		}
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	if update.Message.IsCommand() {
		log.Infof("Handling /%s command for user %s", update.Message.Command(), update.Message.From.UserName)
		msg.Text = t.responder.HandleCommand(update.Message.Command(), update.Message.CommandArguments())
	} else {
		msg.Text = t.responder.HandleText(ctx, update.Message.Text)
	}

	log.Infof("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Errorf("Error sending message: %v", err)
	}
}
