package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/granametro/metrobot/internal/alerts"
	"github.com/granametro/metrobot/internal/models"
)

// Persistent menu button labels. Text routing matches on lowercase
// substrings, so these can be reworded without breaking old keyboards.
const (
	menuStops     = "🔍 Ver paradas"
	menuFavorites = "⭐ Favoritas"
	menuLine      = "🚆 Ver toda la línea"
	menuAlerts    = "🔔 Avisos"
	menuInfo      = "📄 Información"
)

// Threshold choices offered by the alert picker, in minutes.
var alertThresholds = []int{2, 3, 5, 10}

// MainMenu builds the persistent reply keyboard.
func MainMenu(alertsEnabled bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuStops),
			tgbotapi.NewKeyboardButton(menuFavorites),
		),
	}
	second := tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(menuLine),
		tgbotapi.NewKeyboardButton(menuInfo),
	)
	if alertsEnabled {
		second = tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLine),
			tgbotapi.NewKeyboardButton(menuAlerts),
			tgbotapi.NewKeyboardButton(menuInfo),
		)
	}
	rows = append(rows, second)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// StopListKeyboard lays out every stop as an inline button, two per row.
func StopListKeyboard(stops []models.Stop) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(stops); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(stops[i].Name, "ver:"+stops[i].ID),
		}
		if i+1 < len(stops) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(stops[i+1].Name, "ver:"+stops[i+1].ID))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// StopCard renders the arrivals text for one stop.
func StopCard(name string, arrivals []models.Arrival, limit int, isFavorite bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚉 *%s*", name)

	if len(arrivals) == 0 {
		b.WriteString("\n_No hay trenes próximos._")
	} else {
		for i, a := range arrivals {
			if i >= limit {
				break
			}
			fmt.Fprintf(&b, "\n• En %d min → %s", a.Minutes, a.Direction)
		}
	}

	if isFavorite {
		b.WriteString("\n⭐ Favorita")
	}
	return b.String()
}

// StopCardKeyboard builds the action buttons under a stop card.
func StopCardKeyboard(stopID string, isFavorite, alertsEnabled bool) tgbotapi.InlineKeyboardMarkup {
	toggleLabel := "➕ Añadir favorita"
	if isFavorite {
		toggleLabel = "⭐ Quitar favorita"
	}
	row := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(toggleLabel, "toggle:"+stopID),
	}
	if alertsEnabled {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔔 Avisarme", "alert:"+stopID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// FavoriteCardKeyboard builds the delete button under a favorite card.
func FavoriteCardKeyboard(stopID, name string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Eliminar "+name, "del:"+stopID),
		),
	)
}

// LineBoardHeader explains the two-column layout.
func LineBoardHeader(approachingMinutes int) string {
	return fmt.Sprintf(
		"🚆 *Estado de la línea*\n\n"+
			"_Izquierda: Hacia Armilla_\n"+
			"_Derecha:  Hacia Albolote_\n"+
			"🚇  antes del nombre si < %d min | (—) sin tren próximo",
		approachingMinutes)
}

// LineBoard builds the network-status keyboard. The left column walks
// the line toward Armilla (Albolote terminus on top), the right column
// is the reversed walk, so row i pairs a stop with its mirror on the
// return leg. Each cell links to the stop's detail view.
func LineBoard(ordered, reversed []models.Stop, arrivalsByStop map[string][]models.Arrival, approachingMinutes int) tgbotapi.InlineKeyboardMarkup {
	leftDir := models.DirectionArmilla
	rightDir := models.Opposite(leftDir)

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, left := range ordered {
		right := reversed[i]

		leftLabel := lineCell(left.Name, arrivalsByStop[left.ID], leftDir, approachingMinutes)
		rightLabel := lineCell(right.Name, arrivalsByStop[right.ID], rightDir, approachingMinutes)

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(leftLabel, "ver:"+left.ID),
			tgbotapi.NewInlineKeyboardButtonData(rightLabel, "ver:"+right.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func lineCell(name string, arrivals []models.Arrival, direction string, approachingMinutes int) string {
	minutes, ok := models.NextInDirection(arrivals, direction)
	if !ok {
		return fmt.Sprintf("%s (—)", name)
	}
	if minutes < approachingMinutes {
		return fmt.Sprintf("🚇 %s (%dm)", name, minutes)
	}
	return fmt.Sprintf("%s (%dm)", name, minutes)
}

// AlertPicker renders the threshold choices for an approach alert.
func AlertPicker(stopID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, direction := range []string{models.DirectionArmilla, models.DirectionAlbolote} {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(alertThresholds))
		for _, minutes := range alertThresholds {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("→ %s %dm", direction, minutes),
				fmt.Sprintf("alertset:%s:%s:%d", stopID, direction, minutes),
			))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// AlertList renders a user's active subscriptions with cancel buttons.
func AlertList(subs []alerts.Subscription, stopName func(string) string) (string, tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	b.WriteString("🔔 *Avisos activos*")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sub := range subs {
		name := stopName(sub.StopID)
		fmt.Fprintf(&b, "\n• %s → %s (≤ %d min)", name, sub.Direction, sub.ThresholdMinutes)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔕 Cancelar %s → %s", name, sub.Direction),
				"alertdel:"+sub.ID,
			),
		))
	}
	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// AlertFiredText renders the push notification for a fired alert.
func AlertFiredText(stopName, direction string, minutes int) string {
	if minutes <= 0 {
		return fmt.Sprintf("🚇 *¡Tren llegando a %s!*\nDirección %s, en la parada.", stopName, direction)
	}
	return fmt.Sprintf("🚇 *¡Tren acercándose a %s!*\nDirección %s, llega en %d min.", stopName, direction, minutes)
}

// InfoText is the static about message.
func InfoText() string {
	return "📄 *Información del bot*\n\n" +
		"🚆 Horarios en tiempo real del Metro de Granada\n" +
		"📝 GNU GPL v3.0\n" +
		"🙏 Gracias a la API MovGR por los datos"
}
