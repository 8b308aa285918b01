package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

// QuoteMessage carries everything the quote-request email pair needs: the
// requester's contact fields, the "label: value" choice lines and the
// display price band.
type QuoteMessage struct {
	Name    string
	Email   string
	Phone   string
	Choices []string
	Pricing quote.PriceRange
	PDF     []byte
}

type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

func (c *Client) SendQuoteEmails(ctx context.Context, msg QuoteMessage) (EmailIDs, error) {
	var choices strings.Builder
	for _, choice := range msg.Choices {
		choices.WriteString("<li>" + html.EscapeString(choice) + "</li>")
	}

	band := fmt.Sprintf("entre %d&nbsp;$ et %d&nbsp;$", msg.Pricing.Min, msg.Pricing.Max)

	user := Email{
		To:      msg.Email,
		Subject: "Votre soumission de déménagement — Déménagement Boréal",
		HTML: fmt.Sprintf(
			"<h2>Merci pour votre demande, %s!</h2>"+
				"<p>Voici le résumé de votre demande de soumission :</p>"+
				"<ul>%s</ul>"+
				"<p>Estimation indicative : <strong>%s</strong>.</p>"+
				"<p>Un membre de notre équipe vous contactera sous peu pour confirmer les détails.</p>",
			html.EscapeString(msg.Name), choices.String(), band),
	}
	if len(msg.PDF) > 0 {
		user.Attachments = append(user.Attachments, Attachment{
			Filename: "soumission.pdf",
			Content:  msg.PDF,
		})
	}

	owner := Email{
		To:      c.ownerEmail,
		Subject: fmt.Sprintf("Nouvelle demande de soumission — %s", msg.Name),
		HTML: fmt.Sprintf(
			"<h2>Nouvelle demande de soumission</h2>"+
				"<p><strong>Nom :</strong> %s<br>"+
				"<strong>Courriel :</strong> %s<br>"+
				"<strong>Téléphone :</strong> %s</p>"+
				"<ul>%s</ul>"+
				"<p>Estimation transmise : %s.</p>",
			html.EscapeString(msg.Name),
			html.EscapeString(msg.Email),
			html.EscapeString(msg.Phone),
			choices.String(), band),
	}

	return c.SendPair(ctx, user, owner)
}

func (c *Client) SendContactEmails(ctx context.Context, msg ContactMessage) (EmailIDs, error) {
	user := Email{
		To:      msg.Email,
		Subject: "Nous avons bien reçu votre message — Déménagement Boréal",
		HTML: fmt.Sprintf(
			"<h2>Merci %s!</h2>"+
				"<p>Nous avons bien reçu votre message et vous répondrons dans les plus brefs délais.</p>"+
				"<blockquote>%s</blockquote>",
			html.EscapeString(msg.Name), html.EscapeString(msg.Message)),
	}

	owner := Email{
		To:      c.ownerEmail,
		Subject: fmt.Sprintf("Message du site — %s", msg.Name),
		HTML: fmt.Sprintf(
			"<h2>Nouveau message via le formulaire de contact</h2>"+
				"<p><strong>Nom :</strong> %s<br>"+
				"<strong>Courriel :</strong> %s<br>"+
				"<strong>Téléphone :</strong> %s<br>"+
				"<strong>Sujet :</strong> %s</p>"+
				"<blockquote>%s</blockquote>",
			html.EscapeString(msg.Name),
			html.EscapeString(msg.Email),
			html.EscapeString(msg.Phone),
			html.EscapeString(msg.Subject),
			html.EscapeString(msg.Message)),
	}

	return c.SendPair(ctx, user, owner)
}
