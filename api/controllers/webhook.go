package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	"github.com/Maiconloureiro96-cyber/distribuidora/internal/bot"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/redis"
)

const messagesUpsertEvent = "messages.upsert"

// MessageHandler is the bot surface the webhook hands messages to.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg bot.IncomingMessage) error
}

type webhookPayload struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// messages accepts both payload shapes Evolution emits: a single message
// object under data, or a batch under data.messages.
func (p webhookPayload) messages() ([]webhookData, error) {
	var batch struct {
		Messages []webhookData `json:"messages"`
	}
	if err := json.Unmarshal(p.Data, &batch); err == nil && len(batch.Messages) > 0 {
		return batch.Messages, nil
	}

	var single webhookData
	if err := json.Unmarshal(p.Data, &single); err != nil {
		return nil, err
	}
	if single.Key.RemoteJID == "" {
		return nil, nil
	}
	return []webhookData{single}, nil
}

type webhookData struct {
	Key      webhookKey      `json:"key"`
	PushName string          `json:"pushName"`
	Message  *webhookMessage `json:"message"`
}

type webhookKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type webhookMessage struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage *struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

func (d webhookData) phone() string {
	jid := d.Key.RemoteJID
	jid = strings.TrimSuffix(jid, "@s.whatsapp.net")
	jid = strings.TrimSuffix(jid, "@g.us")
	return jid
}

func (d webhookData) text() string {
	if d.Message == nil {
		return ""
	}
	if d.Message.Conversation != "" {
		return d.Message.Conversation
	}
	if d.Message.ExtendedTextMessage != nil {
		return d.Message.ExtendedTextMessage.Text
	}
	return ""
}

// WhatsAppWebhook receives Evolution API events. It always acknowledges
// with 200 once the payload parses, so the gateway never re-delivers a
// message whose handling failed.
func WhatsAppWebhook(handler MessageHandler, dedupe redis.IdempotencyStore, botCfg config.BotConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		if payload.Event != messagesUpsertEvent {
			responses.WriteSuccess(w, map[string]any{"received": true, "skipped": "event"})
			return
		}

		messages, err := payload.messages()
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		processed := 0
		for _, data := range messages {
			if strings.Contains(data.Key.RemoteJID, "@broadcast") {
				continue
			}

			if dedupe != nil && data.Key.ID != "" {
				key := dedupe.IdempotencyKey("webhook_msg", data.Key.ID)
				fresh, err := dedupe.SetNX(ctx, key, "1", botCfg.MessageDedupTTL)
				if err != nil {
					if logg != nil {
						logg.Warn(ctx, "webhook dedupe unavailable")
					}
				} else if !fresh {
					continue
				}
			}

			msg := bot.IncomingMessage{
				Phone:      data.phone(),
				SenderName: data.PushName,
				Text:       data.text(),
				MessageID:  data.Key.ID,
				FromMe:     data.Key.FromMe,
			}

			// One bad message must not block the rest of the batch.
			if err := handler.HandleMessage(ctx, msg); err != nil {
				if logg != nil {
					logg.Error(ctx, "webhook message handling failed", err)
				}
				continue
			}
			processed++
		}

		responses.WriteSuccess(w, map[string]any{"received": true, "processed": processed})
	}
}
