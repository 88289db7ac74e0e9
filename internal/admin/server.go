package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/service"
)

// Notifier delivers a chat message outside the bot's update loop, used to
// confirm webhook-credited purchases.
type Notifier interface {
	Notify(chatID int64, text string)
}

type Server struct {
	addr     string
	username string
	password string
	log      *slog.Logger
	settings *service.SettingsService
	payments *service.PaymentService
	notifier Notifier
	bot      *tgbotapi.BotAPI
	router   *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, settings *service.SettingsService, payments *service.PaymentService, notifier Notifier, bot *tgbotapi.BotAPI) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:     addr,
		username: username,
		password: password,
		log:      log,
		settings: settings,
		payments: payments,
		notifier: notifier,
		bot:      bot,
		router:   r,
	}
	r.Post("/webhook/yookassa", s.handleYooKassaWebhook)
	r.Post("/api/donations/mark-complete", s.handleMarkDonationComplete)
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Post("/broadcast", s.handleBroadcast)
		protected.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleListSettings)
			r.Put("/{key}", s.handleSetSetting)
			r.Post("/reset", s.handleResetSettings)
		})
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("admin shutdown error", "err", err)
		}
	}()

	s.log.Info("admin panel listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin listen: %w", err)
	}
	return nil
}

// handleYooKassaWebhook is the public endpoint for YooKassa payment status
// updates. Crediting is idempotent, so replays are harmless.
func (s *Server) handleYooKassaWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	outcome, err := s.payments.HandleYooKassaWebhook(r.Context(), body)
	if err != nil {
		s.log.Error("yookassa webhook", "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if outcome != nil && outcome.Kind == "premium" && s.notifier != nil {
		s.notifier.Notify(outcome.UserID, fmt.Sprintf("Оплата получена! Начислено %d премиум-запросов.", outcome.RequestsAdded))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type markCompleteRequest struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Email     string `json:"email"`
}

// handleMarkDonationComplete is the payment frontend's confirmation callback:
// it reports the final status and the receipt email the payer entered.
func (s *Server) handleMarkDonationComplete(w http.ResponseWriter, r *http.Request) {
	var req markCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	updated, err := s.payments.MarkDonationComplete(r.Context(), req.PaymentID, req.Status, req.Email)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type broadcastRequest struct {
	Message string  `json:"message"`
	ChatIDs []int64 `json:"chat_ids"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}
	if len(req.ChatIDs) == 0 {
		http.Error(w, "chat_ids required", http.StatusBadRequest)
		return
	}

	count := 0
	for _, id := range req.ChatIDs {
		msg := tgbotapi.NewMessage(id, req.Message)
		if _, err := s.bot.Send(msg); err != nil {
			s.log.Error("send broadcast", "user", id, "err", err)
			continue
		}
		count++
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"sent":  count,
		"total": len(req.ChatIDs),
	})
}

type settingResponse struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.List(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	out := make([]settingResponse, 0, len(settings))
	for _, setting := range settings {
		out = append(out, settingResponse{
			Key:         setting.Key,
			Value:       setting.Value,
			Type:        string(setting.Type),
			Description: setting.Description,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type setSettingRequest struct {
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		http.Error(w, "key required", http.StatusBadRequest)
		return
	}
	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if !s.settings.Set(r.Context(), key, req.Value, models.SettingType(req.Type), req.Description) {
		http.Error(w, "store rejected the update", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": req.Value})
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	if !s.settings.ResetToDefaults(r.Context()) {
		http.Error(w, "reset failed", http.StatusBadGateway)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="gospelbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("admin handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
