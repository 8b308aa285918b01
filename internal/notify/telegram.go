package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/storage"
)

// Telegram pushes new quote requests to the owner's chat. Everything here
// is best-effort: a delivery failure is logged and never reaches the
// customer-facing flow.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return &Telegram{
		bot:    botAPI,
		chatID: chatID,
		logger: logger,
	}, nil
}

// NotifyQuoteRequest sends the summary message and attaches the Excel
// export when one was produced.
func (t *Telegram) NotifyQuoteRequest(ctx context.Context, rec storage.QuoteRecord, excelPath string) {
	if t.chatID == 0 {
		t.logger.Warn("Telegram notifications disabled - no chat ID configured")
		return
	}

	msg := tgbotapi.NewMessage(t.chatID, formatQuoteNotification(rec))
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Error("Failed to send quote notification",
			zap.String("reference", rec.Reference),
			zap.Error(err))
		return
	}

	if excelPath == "" {
		return
	}

	doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FilePath(excelPath))
	doc.Caption = fmt.Sprintf("📊 Détails de la soumission %s", rec.Reference)
	if _, err := t.bot.Send(doc); err != nil {
		t.logger.Error("Failed to send quote Excel file",
			zap.String("reference", rec.Reference),
			zap.Error(err))
	}
}

func formatQuoteNotification(rec storage.QuoteRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Nouvelle soumission %s\n\n", rec.Reference)
	fmt.Fprintf(&b, "Nom: %s\n", rec.Name)
	fmt.Fprintf(&b, "Courriel: %s\n", rec.Email)
	fmt.Fprintf(&b, "Téléphone: %s\n", rec.Phone)
	fmt.Fprintf(&b, "Type: %s / %s\n", rec.ServiceType, rec.PropertyType)
	if len(rec.Services) > 0 {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(rec.Services, ", "))
	}
	if len(rec.ComplexItems) > 0 {
		fmt.Fprintf(&b, "Objets spéciaux: %s\n", strings.Join(rec.ComplexItems, ", "))
	}
	if rec.OriginAddress != "" {
		fmt.Fprintf(&b, "Trajet: %s → %s (%.0f km)\n",
			rec.OriginAddress, rec.DestinationAddress, rec.DistanceKm)
	}
	fmt.Fprintf(&b, "──────────────────\n")
	fmt.Fprintf(&b, "Avant taxes: %.2f $\n", rec.BasePrice)
	fmt.Fprintf(&b, "Taxes: %.2f $\n", rec.Tax)
	fmt.Fprintf(&b, "Total estimé: %d $\n", rec.Total)
	fmt.Fprintf(&b, "Date: %s", rec.CreatedAt.Format("02.01.2006 15:04"))
	return b.String()
}
