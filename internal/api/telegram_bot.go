// Package api provides handlers for external APIs and interfaces
package api

import (
	"fmt"
	"log"

	"github.com/mpetrov/wait-times-bot/internal/usecases"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	bot     *tgbotapi.BotAPI
	useCase *usecases.CollectUseCase
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(botToken string, useCase *usecases.CollectUseCase) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}

	return &TelegramBot{
		bot:     bot,
		useCase: useCase,
	}, nil
}

// Start begins listening for and handling Telegram messages
func (t *TelegramBot) Start() {
	log.Printf("Authorized on Telegram account %s", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.bot.GetUpdatesChan(u)
	log.Println("Bot is now listening for messages...")

	for update := range updates {
		if update.Message == nil {
			continue
		}

		// Log incoming messages
		log.Printf("Received message from %s (ID: %d): %s",
			update.Message.From.UserName,
			update.Message.From.ID,
			update.Message.Text)

		t.handleMessage(update)
	}
}

// handleMessage processes a Telegram message update
func (t *TelegramBot) handleMessage(update tgbotapi.Update) {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")

	if update.Message.IsCommand() {
		t.handleCommand(update.Message, &msg)
	} else {
		msg.Text = "I don't understand. Use /help to see available commands."
	}

	log.Printf("Sending response to user %s", update.Message.From.UserName)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// handleCommand processes commands like /start, /help, etc.
func (t *TelegramBot) handleCommand(message *tgbotapi.Message, msg *tgbotapi.MessageConfig) {
	switch message.Command() {
	case "start":
		log.Printf("Handling /start command for user %s", message.From.UserName)
		msg.Text = "Welcome to the Wait Times Bot! Use /parks to see the tracked parks or /help for more information."

	case "help":
		log.Printf("Handling /help command for user %s", message.From.UserName)
		msg.Text = "Available commands:\n" +
			"/start - Start the bot\n" +
			"/parks - Show the tracked parks\n" +
			"/park [name] - Show current wait times for a park\n" +
			"/status - Show when each park was last updated\n" +
			"/help - Show this help message"

	case "parks":
		log.Printf("Handling /parks command for user %s", message.From.UserName)
		t.handleParksCommand(msg)

	case "park":
		args := message.CommandArguments()
		log.Printf("Handling /park command with args '%s' for user %s", args, message.From.UserName)
		t.handleParkCommand(args, msg)

	case "status":
		log.Printf("Handling /status command for user %s", message.From.UserName)
		t.handleStatusCommand(msg)

	default:
		log.Printf("Received unknown command /%s from user %s", message.Command(), message.From.UserName)
		msg.Text = "Unknown command. Use /help to see available commands."
	}
}

// handleParksCommand processes the /parks command
func (t *TelegramBot) handleParksCommand(msg *tgbotapi.MessageConfig) {
	parks, err := t.useCase.AvailableParks()
	if err != nil {
		msg.Text = "Error fetching park data. Please try again later."
		log.Printf("Error fetching park data: %v", err)
		return
	}

	if len(parks) == 0 {
		msg.Text = "No parks in the database yet. The collector may not have run."
		return
	}

	msg.Text = "Tracked parks:\n\n"
	for _, park := range parks {
		msg.Text += "• " + park.Name + "\n"
	}
	msg.Text += "\nUse /park [name] to get current wait times."
}

// handleParkCommand processes the /park command
func (t *TelegramBot) handleParkCommand(parkName string, msg *tgbotapi.MessageConfig) {
	if parkName == "" {
		msg.Text = "Please specify a park name. Example: /park Epic Universe"
		return
	}

	waitTimes, err := t.useCase.ParkWaitTimes(parkName)
	if err != nil {
		msg.Text = "Error fetching wait time data. Please try again later."
		log.Printf("Error fetching wait time data: %v", err)
		return
	}

	if len(waitTimes) == 0 {
		msg.Text = fmt.Sprintf("No information found for park '%s'. Use /parks to see the tracked parks.", parkName)
		return
	}

	msg.Text = t.useCase.FormatParkWaitTimes(parkName, waitTimes)
}

// handleStatusCommand processes the /status command
func (t *TelegramBot) handleStatusCommand(msg *tgbotapi.MessageConfig) {
	statuses, err := t.useCase.Statuses()
	if err != nil {
		msg.Text = "Error fetching status data. Please try again later."
		log.Printf("Error fetching status data: %v", err)
		return
	}

	if len(statuses) == 0 {
		msg.Text = "No parks in the database yet. The collector may not have run."
		return
	}

	msg.Text = "Last successful observation per park:\n\n"
	for _, status := range statuses {
		if status.LastObservedAt.IsZero() {
			msg.Text += fmt.Sprintf("• %s: no data yet\n", status.Park.Name)
		} else {
			msg.Text += fmt.Sprintf("• %s: %s\n", status.Park.Name, status.LastObservedAt.Format("2006-01-02 15:04:05"))
		}
	}
}
