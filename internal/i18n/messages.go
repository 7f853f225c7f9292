// Package i18n holds the user-facing message catalog. Handlers reference
// message keys instead of literals so the response language can change
// without touching handler code. Spanish is the default catalog; English is
// the fallback for keys not yet translated.
package i18n

const (
	MsgInvalidJSON       = "invalid_json"
	MsgValidationError   = "validation_error"
	MsgQuoteNotFound     = "quote_not_found"
	MsgInvalidToken      = "invalid_token"
	MsgInvalidTransition = "invalid_transition"
	MsgUnknownService    = "unknown_service"
	MsgDatabaseError     = "database_error"
	MsgQuoteCreated      = "quote_created"
	MsgReminderSent      = "reminder_sent"
	MsgReminderNotNeeded = "reminder_not_needed"
	MsgDisclaimer        = "estimate_disclaimer"
)

var spanish = map[string]string{
	MsgInvalidJSON:       "JSON inválido",
	MsgValidationError:   "error de validación",
	MsgQuoteNotFound:     "cotización no encontrada",
	MsgInvalidToken:      "token de seguimiento inválido",
	MsgInvalidTransition: "transición de estado no permitida",
	MsgUnknownService:    "tipo de servicio desconocido",
	MsgDatabaseError:     "error de base de datos",
	MsgQuoteCreated:      "cotización enviada",
	MsgReminderSent:      "recordatorio enviado",
	MsgReminderNotNeeded: "no se requiere recordatorio",
	MsgDisclaimer:        "Este es un precio estimado. El precio final puede variar según los requerimientos específicos del proyecto.",
}

var english = map[string]string{
	MsgInvalidJSON:       "invalid json",
	MsgValidationError:   "validation error",
	MsgQuoteNotFound:     "quote not found",
	MsgInvalidToken:      "invalid tracking token",
	MsgInvalidTransition: "status transition not allowed",
	MsgUnknownService:    "unknown service type",
	MsgDatabaseError:     "database error",
	MsgQuoteCreated:      "quote submitted",
	MsgReminderSent:      "reminder sent",
	MsgReminderNotNeeded: "no reminder needed",
	MsgDisclaimer:        "This is an estimated price. The final price may vary depending on project requirements.",
}

func T(key string) string {
	if msg, ok := spanish[key]; ok {
		return msg
	}
	if msg, ok := english[key]; ok {
		return msg
	}
	return key
}
