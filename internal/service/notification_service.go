package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/signalement-service/internal/config"
	"github.com/spec-kit/signalement-service/internal/events"
	"github.com/spec-kit/signalement-service/internal/mirror"
	"github.com/spec-kit/signalement-service/internal/repository"
)

// NotificationService pushes report changes to the external sink. It is a
// fire-and-forget side channel: every failure is logged and swallowed, never
// surfaced to the operation that raised the event.
type NotificationService struct {
	dispatcher   events.Dispatcher
	signalements repository.SignalementRepository
	store        mirror.Store
	client       *http.Client
	cfg          config.NotificationConfig
	mirrorCfg    config.MirrorConfig
	logger       *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, signalements repository.SignalementRepository, store mirror.Store, cfg *config.Config, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:   dispatcher,
		signalements: signalements,
		store:        store,
		client:       &http.Client{Timeout: 10 * time.Second},
		cfg:          cfg.Notification,
		mirrorCfg:    cfg.Mirror,
		logger:       logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSignalementStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventValidationChanged, n.handleValidationChanged)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SignalementStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("SignalementStatusChanged",
		zap.Int64("signalement_id", event.SignalementID),
		zap.String("old_status", payload.OldStatus),
		zap.String("new_status", payload.NewStatus))
	n.send(ctx, payload.UserUID, map[string]any{
		"signalementId": event.SignalementID,
		"oldStatus":     payload.OldStatus,
		"newStatus":     payload.NewStatus,
		"description":   payload.Description,
	})
	return nil
}

func (n *NotificationService) handleValidationChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ValidationChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("ValidationChanged",
		zap.Int64("signalement_id", event.SignalementID),
		zap.String("new_status", payload.NewStatus))

	sig, err := n.signalements.GetByID(ctx, event.SignalementID)
	if err != nil {
		n.logger.Warn("notification: signalement lookup failed",
			zap.Int64("signalement_id", event.SignalementID),
			zap.Error(err))
		return nil
	}
	body := map[string]any{
		"signalementId": event.SignalementID,
		"newStatus":     payload.NewStatus,
		"description":   sig.Description,
	}
	if payload.OldStatus != nil {
		body["oldStatus"] = *payload.OldStatus
	}
	n.send(ctx, sig.UserUID, body)
	return nil
}

// send resolves the recipient's push token and posts the payload to the
// webhook.
func (n *NotificationService) send(ctx context.Context, userUID *string, body map[string]any) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}

	if userUID != nil {
		doc, err := n.store.Get(ctx, n.mirrorCfg.PushTokenCollection, *userUID)
		switch {
		case err == mirror.ErrNotFound:
			// recipient never registered a device
		case err != nil:
			n.logger.Warn("notification: token lookup failed",
				zap.String("user_uid", *userUID),
				zap.Error(err))
		default:
			if token := doc.GetString("token"); token != "" {
				body["pushToken"] = token
			}
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		n.logger.Warn("notification: encode failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(raw))
	if err != nil {
		n.logger.Warn("notification: request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("notification: webhook unreachable", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn("notification: webhook rejected", zap.Int("status", resp.StatusCode))
	}
}
