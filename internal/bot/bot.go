// Package bot is the Telegram front-end: it turns chat updates into
// transit queries and renders the answers as messages and keyboards.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/granametro/metrobot/internal/alerts"
	"github.com/granametro/metrobot/internal/config"
	"github.com/granametro/metrobot/internal/favorites"
	"github.com/granametro/metrobot/internal/models"
	"github.com/granametro/metrobot/internal/store"
	"github.com/granametro/metrobot/pkg/metro"
)

const handlerTimeout = 30 * time.Second

// API is the slice of tgbotapi.BotAPI the bot uses. *tgbotapi.BotAPI
// satisfies it; tests substitute a recorder.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires the chat platform to the transit data and user state.
type Bot struct {
	api    API
	client metro.Client
	favs   *favorites.Store
	alerts *alerts.Store // nil when the alerts feature is disabled
	cfg    config.BotConfig
	logger *slog.Logger

	mu       sync.Mutex
	menuMsgs map[int64]int // chat ID -> last menu message, deleted before re-sending
}

// New creates a bot. Pass a nil alert store to disable the feature.
func New(api API, client metro.Client, favs *favorites.Store, alertStore *alerts.Store, cfg config.BotConfig, logger *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		client:   client,
		favs:     favs,
		alerts:   alertStore,
		cfg:      cfg,
		logger:   logger,
		menuMsgs: make(map[int64]int),
	}
}

func (b *Bot) alertsEnabled() bool {
	return b.alerts != nil
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleMenuText(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.sendStopList(ctx, msg.Chat.ID)
	case "favoritas":
		b.sendFavorites(ctx, msg.Chat.ID, msg.From.ID)
	case "linea":
		b.sendLineBoard(ctx, msg.Chat.ID)
	case "avisos":
		b.sendAlertList(ctx, msg.Chat.ID, msg.From.ID)
	case "info":
		b.sendInfo(ctx, msg.Chat.ID)
	}
}

// handleMenuText routes taps on the persistent reply keyboard. Matching
// is on lowercase substrings so label emoji can change freely.
func (b *Bot) handleMenuText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.ToLower(msg.Text)
	switch {
	case strings.Contains(text, "ver paradas"):
		b.sendStopList(ctx, msg.Chat.ID)
	case strings.Contains(text, "favoritas"):
		b.sendFavorites(ctx, msg.Chat.ID, msg.From.ID)
	case strings.Contains(text, "ver toda la línea"):
		b.sendLineBoard(ctx, msg.Chat.ID)
	case strings.Contains(text, "avisos"):
		b.sendAlertList(ctx, msg.Chat.ID, msg.From.ID)
	case strings.Contains(text, "información"), strings.Contains(text, "info"):
		b.sendInfo(ctx, msg.Chat.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Acknowledge the tap so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("answer callback", "error", err)
	}

	// Telegram omits the message when the originating one is too old.
	if query.Message == nil {
		return
	}

	action, payload, _ := strings.Cut(query.Data, ":")
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	userID := query.From.ID

	switch action {
	case "ver":
		b.editStopCard(ctx, chatID, messageID, userID, payload)
	case "toggle":
		b.toggleFavorite(ctx, chatID, messageID, userID, payload)
	case "del":
		b.deleteFavorite(ctx, chatID, messageID, userID, payload)
	case "alert":
		b.editAlertPicker(ctx, chatID, messageID, payload)
	case "alertset":
		b.setAlert(ctx, chatID, messageID, userID, payload)
	case "alertdel":
		b.deleteAlert(ctx, chatID, messageID, payload)
	default:
		b.logger.Warn("unknown callback action", "data", query.Data)
		return
	}

	b.sendMenu(chatID)
}

func (b *Bot) sendStopList(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Selecciona una parada para ver los próximos trenes:")
	msg.ReplyMarkup = StopListKeyboard(b.client.Stops())
	b.send(msg)
	b.sendMenu(chatID)
}

func (b *Bot) editStopCard(ctx context.Context, chatID int64, messageID int, userID int64, stopID string) {
	stop, err := b.client.GetStop(stopID)
	if err != nil {
		if errors.Is(err, store.ErrStopUnknown) {
			b.editText(chatID, messageID, "❓ Parada desconocida.")
			return
		}
		b.editText(chatID, messageID, "❌ Error al consultar datos.")
		return
	}

	arrivals, err := b.client.Arrivals(ctx, stopID)
	if err != nil {
		b.logger.Warn("fetch arrivals", "stop", stopID, "error", err)
		b.editText(chatID, messageID, "❌ Error al consultar datos.")
		return
	}

	isFav := b.favs.Contains(userID, stopID)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, StopCard(stop.Name, arrivals, b.cfg.TrainsToShow, isFav))
	edit.ParseMode = tgbotapi.ModeMarkdown
	kb := StopCardKeyboard(stopID, isFav, b.alertsEnabled())
	edit.ReplyMarkup = &kb
	b.send(edit)
}

func (b *Bot) toggleFavorite(ctx context.Context, chatID int64, messageID int, userID int64, stopID string) {
	status, err := b.favs.Toggle(userID, stopID)
	if err != nil {
		b.logger.Error("persist favorites", "error", err)
	}

	var text string
	switch status {
	case favorites.StatusAdded:
		text = "✅ Añadida a favoritas."
	case favorites.StatusRemoved:
		text = "❌ Eliminada de favoritas."
	case favorites.StatusLimit:
		text = fmt.Sprintf("⚠️ Límite de %d favoritas alcanzado.", b.cfg.FavoritesLimit)
	}
	b.editText(chatID, messageID, text)
}

func (b *Bot) deleteFavorite(ctx context.Context, chatID int64, messageID int, userID int64, stopID string) {
	if err := b.favs.Remove(userID, stopID); err != nil {
		b.logger.Error("persist favorites", "error", err)
	}
	b.editText(chatID, messageID, "❌ Favorita eliminada.")
}

func (b *Bot) sendFavorites(ctx context.Context, chatID, userID int64) {
	favs := b.favs.List(userID)
	if len(favs) == 0 {
		msg := tgbotapi.NewMessage(chatID, "No tienes favoritas aún.")
		msg.ReplyMarkup = MainMenu(b.alertsEnabled())
		b.send(msg)
		return
	}

	// Fetch every favorite's arrivals concurrently; a failing stop
	// degrades to a warning card instead of sinking the whole list.
	results := make([][]models.Arrival, len(favs))
	errs := make([]error, len(favs))

	g, gctx := errgroup.WithContext(ctx)
	for i, stopID := range favs {
		i, stopID := i, stopID
		g.Go(func() error {
			results[i], errs[i] = b.client.Arrivals(gctx, stopID)
			return nil
		})
	}
	g.Wait()

	for i, stopID := range favs {
		name := b.client.StopName(stopID)
		if errs[i] != nil {
			b.logger.Warn("fetch favorite arrivals", "stop", stopID, "error", errs[i])
			b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("%s: ⚠️ Error", name)))
			continue
		}

		msg := tgbotapi.NewMessage(chatID, StopCard(name, results[i], b.cfg.TrainsToShow, false))
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = FavoriteCardKeyboard(stopID, name)
		b.send(msg)
	}

	b.sendMenu(chatID)
}

func (b *Bot) sendLineBoard(ctx context.Context, chatID int64) {
	line, err := b.client.AllArrivals(ctx)
	if err != nil {
		b.logger.Warn("fetch line arrivals", "error", err)
		b.send(tgbotapi.NewMessage(chatID, "❌ Error al consultar datos."))
		b.sendMenu(chatID)
		return
	}

	arrivalsByStop := make(map[string][]models.Arrival, len(line))
	for _, sa := range line {
		arrivalsByStop[sa.Stop.ID] = sa.Upcoming
	}

	header := tgbotapi.NewMessage(chatID, LineBoardHeader(b.cfg.ApproachingMinutes))
	header.ParseMode = tgbotapi.ModeMarkdown
	b.send(header)

	board := tgbotapi.NewMessage(chatID, "Pulsa una parada para ver detalles:")
	board.ReplyMarkup = LineBoard(b.client.Stops(), b.client.ReversedStops(), arrivalsByStop, b.cfg.ApproachingMinutes)
	b.send(board)

	b.sendMenu(chatID)
}

func (b *Bot) editAlertPicker(ctx context.Context, chatID int64, messageID int, stopID string) {
	if !b.alertsEnabled() {
		return
	}
	name := b.client.StopName(stopID)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, fmt.Sprintf("🔔 ¿Cuándo te aviso de un tren en %s?", name))
	kb := AlertPicker(stopID)
	edit.ReplyMarkup = &kb
	b.send(edit)
}

func (b *Bot) setAlert(ctx context.Context, chatID int64, messageID int, userID int64, payload string) {
	if !b.alertsEnabled() {
		return
	}

	// payload is "<stopID>:<direction>:<minutes>"
	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		b.logger.Warn("malformed alertset payload", "payload", payload)
		return
	}
	stopID, direction := parts[0], parts[1]
	minutes, err := strconv.Atoi(parts[2])
	if err != nil || minutes <= 0 {
		b.logger.Warn("malformed alertset threshold", "payload", payload)
		return
	}

	// Stale callbacks can reference stops dropped from the line, and a
	// crafted one can carry anything. A subscription that cannot match
	// any arrival would sit in the list forever.
	if _, err := b.client.GetStop(stopID); err != nil {
		b.editText(chatID, messageID, "❓ Parada desconocida.")
		return
	}
	if direction != models.DirectionArmilla && direction != models.DirectionAlbolote {
		b.logger.Warn("malformed alertset direction", "payload", payload)
		return
	}

	if _, err := b.alerts.Add(userID, chatID, stopID, direction, minutes); err != nil {
		b.logger.Error("persist alert", "error", err)
	}
	b.editText(chatID, messageID,
		fmt.Sprintf("🔔 Te avisaré cuando un tren hacia %s esté a %d min o menos de %s.",
			direction, minutes, b.client.StopName(stopID)))
}

func (b *Bot) sendAlertList(ctx context.Context, chatID, userID int64) {
	if !b.alertsEnabled() {
		return
	}

	subs := b.alerts.ListByUser(userID)
	if len(subs) == 0 {
		msg := tgbotapi.NewMessage(chatID, "No tienes avisos activos.")
		msg.ReplyMarkup = MainMenu(true)
		b.send(msg)
		return
	}

	text, kb := AlertList(subs, b.client.StopName)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = kb
	b.send(msg)
	b.sendMenu(chatID)
}

func (b *Bot) deleteAlert(ctx context.Context, chatID int64, messageID int, id string) {
	if !b.alertsEnabled() {
		return
	}
	if err := b.alerts.Remove(id); err != nil {
		b.logger.Error("remove alert", "error", err)
	}
	b.editText(chatID, messageID, "🔕 Aviso cancelado.")
}

func (b *Bot) sendInfo(ctx context.Context, chatID int64) {
	msg := tgbotapi.NewMessage(chatID, InfoText())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	b.send(msg)
	b.sendMenu(chatID)
}

// AlertFired implements alerts.Notifier.
func (b *Bot) AlertFired(ctx context.Context, sub alerts.Subscription, minutes int) error {
	msg := tgbotapi.NewMessage(sub.ChatID, AlertFiredText(b.client.StopName(sub.StopID), sub.Direction, minutes))
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

// sendMenu re-sends the persistent menu, deleting the previous menu
// message so chats do not fill up with them. Delete failures (message
// already gone, too old) are ignored.
func (b *Bot) sendMenu(chatID int64) {
	b.mu.Lock()
	old := b.menuMsgs[chatID]
	b.mu.Unlock()

	if old != 0 {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, old)); err != nil {
			b.logger.Debug("delete old menu", "chat", chatID, "error", err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, "¿Qué deseas hacer?")
	msg.ReplyMarkup = MainMenu(b.alertsEnabled())
	sent, err := b.api.Send(msg)
	if err != nil {
		b.logger.Warn("send menu", "chat", chatID, "error", err)
		return
	}

	b.mu.Lock()
	b.menuMsgs[chatID] = sent.MessageID
	b.mu.Unlock()
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("send message", "error", err)
	}
}
