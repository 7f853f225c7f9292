package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"hexagono-backend/internal/quotes"
)

var statusLabels = map[string]string{
	quotes.StatusPending:   "Pendiente",
	quotes.StatusInReview:  "En revisión",
	quotes.StatusQuoted:    "Cotizada",
	quotes.StatusCompleted: "Completada",
	quotes.StatusCancelled: "Cancelada",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

type quoteEmailData struct {
	Quote          quotes.Quote
	StatusLabel    string
	PreviousLabel  string
	Notes          string
	TrackingURL    string
	EstimatedPrice string
}

func (c *BrevoClient) emailData(quote quotes.Quote) quoteEmailData {
	data := quoteEmailData{
		Quote:       quote,
		StatusLabel: statusLabel(quote.Status),
		TrackingURL: fmt.Sprintf("%s/%s", c.trackingBaseURL, quote.AccessToken),
	}
	if quote.EstimatedPrice != nil {
		data.EstimatedPrice = fmt.Sprintf("$%d ARS", *quote.EstimatedPrice)
	}
	return data
}

const quoteReceivedAlertTemplate = `<!DOCTYPE html>
<html>
<body>
  <h3>Nueva solicitud de cotización</h3>
  <p><strong>Número:</strong> {{.Quote.QuoteNumber}}</p>
  <p><strong>Cliente:</strong> {{.Quote.ClientName}}</p>
  <p><strong>Email:</strong> {{.Quote.ClientEmail}}</p>
  <p><strong>Empresa:</strong> {{.Quote.ClientCompany}}</p>
  <p><strong>Servicio:</strong> {{.Quote.ServiceType}}</p>
  <p><strong>Presupuesto:</strong> {{.Quote.BudgetRange}}</p>
  <p><strong>Plazo:</strong> {{.Quote.Timeline}}</p>
  {{if .EstimatedPrice}}<p><strong>Estimado:</strong> {{.EstimatedPrice}}</p>{{end}}
  <p><strong>Descripción:</strong><br/>{{.Quote.Description}}</p>
</body>
</html>`

const quoteConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hola {{.Quote.ClientName}},</p>
  <p>Recibimos tu solicitud de cotización.</p>
  <p><strong>Número de cotización: {{.Quote.QuoteNumber}}</strong></p>
  {{if .EstimatedPrice}}<p>Precio estimado: <strong>{{.EstimatedPrice}}</strong></p>{{end}}
  <p>Podés seguir el estado de tu solicitud en cualquier momento desde este enlace:</p>
  <p><a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
  <p>Guardá este enlace: es tu acceso al seguimiento.</p>
  <p>Gracias por confiar en nosotros.</p>
</body>
</html>`

const statusUpdateTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hola {{.Quote.ClientName}},</p>
  <p>El estado de tu cotización <strong>{{.Quote.QuoteNumber}}</strong> cambió.</p>
  <p>{{.PreviousLabel}} &rarr; <strong>{{.StatusLabel}}</strong></p>
  {{if .Notes}}<p>Comentario: {{.Notes}}</p>{{end}}
  <p>Detalle completo: <a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
</body>
</html>`

const reminderTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hola {{.Quote.ClientName}},</p>
  <p>Tu solicitud de cotización <strong>{{.Quote.QuoteNumber}}</strong> sigue pendiente.</p>
  <p>Si querés avanzar o agregar información, respondé este correo o revisá el estado acá:</p>
  <p><a href="{{.TrackingURL}}">{{.TrackingURL}}</a></p>
</body>
</html>`

var (
	quoteReceivedAlertTmpl = template.Must(template.New("quote_received_alert").Parse(quoteReceivedAlertTemplate))
	quoteConfirmationTmpl  = template.Must(template.New("quote_confirmation").Parse(quoteConfirmationTemplate))
	statusUpdateTmpl       = template.Must(template.New("quote_status_update").Parse(statusUpdateTemplate))
	reminderTmpl           = template.Must(template.New("quote_reminder").Parse(reminderTemplate))
)

func renderTemplate(tmpl *template.Template, data quoteEmailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *BrevoClient) SendQuoteReceivedAlert(ctx context.Context, quote quotes.Quote) (string, error) {
	data := c.emailData(quote)
	htmlBody, err := renderTemplate(quoteReceivedAlertTmpl, data)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("Nueva cotización %s - %s", quote.QuoteNumber, quote.ClientName)
	return c.sendHTML(ctx, c.adminEmail, "", subject, htmlBody)
}

func (c *BrevoClient) SendQuoteConfirmation(ctx context.Context, quote quotes.Quote) (string, error) {
	data := c.emailData(quote)
	htmlBody, err := renderTemplate(quoteConfirmationTmpl, data)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("Recibimos tu solicitud - %s", quote.QuoteNumber)
	return c.sendHTML(ctx, quote.ClientEmail, quote.ClientName, subject, htmlBody)
}

func (c *BrevoClient) SendStatusUpdateNotification(ctx context.Context, quote quotes.Quote, previousStatus, notes string) (string, error) {
	data := c.emailData(quote)
	data.PreviousLabel = statusLabel(previousStatus)
	data.Notes = notes
	htmlBody, err := renderTemplate(statusUpdateTmpl, data)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("Tu cotización %s: %s", quote.QuoteNumber, data.StatusLabel)
	return c.sendHTML(ctx, quote.ClientEmail, quote.ClientName, subject, htmlBody)
}

func (c *BrevoClient) SendReminderNotification(ctx context.Context, quote quotes.Quote) (string, error) {
	data := c.emailData(quote)
	htmlBody, err := renderTemplate(reminderTmpl, data)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("Tu cotización %s sigue pendiente", quote.QuoteNumber)
	return c.sendHTML(ctx, quote.ClientEmail, quote.ClientName, subject, htmlBody)
}
