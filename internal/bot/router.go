// Package bot dispatches inbound Telegram commands and callback tokens
// to the catalog, cache, and onboarding components, and renders the
// resulting UI updates.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/shlex"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/auth"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/cache"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/catalog"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/onboard"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/token"
)

// Identity is who the transport says sent the event. Never persisted.
type Identity struct {
	ID        int64
	FirstName string
	Username  string
}

// Catalog is the read side of the upstream listings.
type Catalog interface {
	ListGoals(ctx context.Context) ([]catalog.Goal, error)
	ListBatches(ctx context.Context, goalUID string, offset int) (*catalog.BatchPage, error)
}

// Onboarder runs the register-then-publish protocol.
type Onboarder interface {
	Onboard(ctx context.Context, batchUID string) onboard.Outcome
	Sweep(ctx context.Context) (int, error)
}

// AutoUpdate is the scheduler's arm/disarm surface.
type AutoUpdate interface {
	Armed() bool
	Toggle() bool
}

// Transport is everything the router needs to talk back to the chat.
type Transport interface {
	notify.Sender
	Edit(ctx context.Context, chatID int64, messageID int, text string, kb notify.Keyboard) error
	EditKeyboard(ctx context.Context, chatID int64, messageID int, kb notify.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID string, text string, alert bool) error
}

type Router struct {
	catalog    Catalog
	cache      *cache.BatchCache
	gate       *auth.Gate
	pipeline   Onboarder
	autoUpdate AutoUpdate
	notifier   *notify.Broadcaster
	transport  Transport
}

func NewRouter(cat Catalog, batchCache *cache.BatchCache, gate *auth.Gate, pipeline Onboarder, autoUpdate AutoUpdate, notifier *notify.Broadcaster, transport Transport) *Router {
	return &Router{
		catalog:    cat,
		cache:      batchCache,
		gate:       gate,
		pipeline:   pipeline,
		autoUpdate: autoUpdate,
		notifier:   notifier,
		transport:  transport,
	}
}

// HandleCommand dispatches a slash command.
func (r *Router) HandleCommand(ctx context.Context, ident Identity, chatID int64, command, arguments string) {
	switch command {
	case "start":
		r.commandStart(ctx, ident, chatID)
	case "add":
		r.commandAdd(ctx, ident, chatID, arguments)
	default:
		slog.Debug("Ignoring unknown command", "command", command, "user", ident.ID)
	}
}

func (r *Router) commandStart(ctx context.Context, ident Identity, chatID int64) {
	kb := mainMenuKeyboard(r.gate.IsPrivileged(ident.ID))
	r.send(ctx, chatID, notify.Message{Text: welcomeText, Keyboard: kb})
}

func (r *Router) commandAdd(ctx context.Context, ident Identity, chatID int64, arguments string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.send(ctx, chatID, notify.Message{Text: notAuthorizedText})
		return
	}

	args, err := shlex.Split(arguments)
	if err != nil || len(args) < 1 {
		r.send(ctx, chatID, notify.Message{Text: "❌ Please provide a batch ID\nUsage: /add batch_id"})
		return
	}
	batchUID := args[0]

	outcome := r.pipeline.Onboard(ctx, batchUID)
	switch outcome.Result {
	case onboard.Success:
		r.send(ctx, chatID, notify.Message{Text: fmt.Sprintf("✅ Batch %s successfully added to the system!", batchUID)})
		r.notifier.Broadcast(ctx, notify.Message{Text: addConfirmationText(batchUID, ident)})
	case onboard.PartialFailure:
		r.send(ctx, chatID, notify.Message{
			Text: fmt.Sprintf("⚠️ Batch %s was registered but the publish step failed. It needs manual reconciliation.", batchUID),
		})
	default:
		r.send(ctx, chatID, notify.Message{Text: fmt.Sprintf("❌ Failed to register batch %s. Nothing was published.", batchUID)})
	}
}

// HandleCallback decodes callback data and dispatches on its kind.
func (r *Router) HandleCallback(ctx context.Context, ident Identity, chatID int64, messageID int, callbackID, data string) {
	tok, err := token.Decode(data)
	if err != nil {
		slog.Warn("Rejecting malformed callback token", "data", data, "user", ident.ID, "error", err)
		r.answer(ctx, callbackID, genericRetryText, true)
		return
	}

	switch tok.Kind {
	case token.KindShowGoals, token.KindGoals:
		r.showGoalsPage(ctx, chatID, messageID, callbackID, tok.Page)
	case token.KindGoal:
		r.showBatchesPage(ctx, chatID, messageID, callbackID, tok.GoalUID, tok.Offset)
	case token.KindBatch:
		r.showBatchDetail(ctx, ident, chatID, callbackID, tok.BatchUID)
	case token.KindRequest:
		r.requestAdd(ctx, ident, callbackID, tok.BatchUID)
	case token.KindAdd:
		r.addBatch(ctx, ident, chatID, callbackID, tok.BatchUID)
	case token.KindCopy:
		r.answer(ctx, callbackID, "UID copied: "+tok.BatchUID, true)
	case token.KindUpdateMenu:
		r.updateMenu(ctx, ident, chatID, messageID, callbackID)
	case token.KindAutoUpdateMenu:
		r.autoUpdateMenu(ctx, ident, chatID, messageID, callbackID)
	case token.KindToggleAutoUpdate:
		r.toggleAutoUpdate(ctx, ident, chatID, messageID, callbackID)
	case token.KindManualUpdate:
		r.manualUpdate(ctx, ident, chatID, messageID, callbackID)
	}
}

func (r *Router) showGoalsPage(ctx context.Context, chatID int64, messageID int, callbackID string, page int) {
	goals, err := r.catalog.ListGoals(ctx)
	if err != nil {
		slog.Warn("Goal listing failed", "error", err)
		r.answer(ctx, callbackID, goalsFetchFailedText, true)
		return
	}

	kb := goalsKeyboard(goals, page)
	if kb == nil {
		r.answer(ctx, callbackID, goalsFetchFailedText, true)
		return
	}

	if err := r.transport.EditKeyboard(ctx, chatID, messageID, kb); err != nil {
		slog.Warn("Goal keyboard edit failed", "error", err)
	}
	r.answer(ctx, callbackID, "", false)
}

func (r *Router) showBatchesPage(ctx context.Context, chatID int64, messageID int, callbackID, goalUID string, offset int) {
	page, err := r.catalog.ListBatches(ctx, goalUID, offset)
	if err != nil {
		slog.Warn("Batch listing failed", "goal", goalUID, "offset", offset, "error", err)
		r.answer(ctx, callbackID, batchesFetchFailedText, true)
		return
	}
	if len(page.Results) == 0 {
		r.answer(ctx, callbackID, batchesFetchFailedText, true)
		return
	}

	// Cache before rendering so a later selection, from this session or
	// any earlier one, can find the record.
	for _, b := range page.Results {
		r.cache.Put(b)
	}

	kb := batchesKeyboard(page, goalUID, offset)
	if err := r.transport.Edit(ctx, chatID, messageID, selectBatchText, kb); err != nil {
		slog.Warn("Batch list edit failed", "error", err)
	}
	r.answer(ctx, callbackID, "", false)
}

func (r *Router) showBatchDetail(ctx context.Context, ident Identity, chatID int64, callbackID, batchUID string) {
	batch, ok := r.cache.Get(batchUID)
	if !ok {
		r.answer(ctx, callbackID, selectionExpiredText, true)
		return
	}

	r.send(ctx, chatID, notify.Message{
		Text:     batchCaption(batch, ident),
		PhotoURL: batch.CoverPhoto,
		Keyboard: batchDetailKeyboard(batchUID, r.gate.IsPrivileged(ident.ID)),
	})
	r.answer(ctx, callbackID, "", false)
}

// requestAdd is the one path where a non-privileged identity surfaces a
// privileged action to the operators. It never touches the pipeline.
func (r *Router) requestAdd(ctx context.Context, ident Identity, callbackID, batchUID string) {
	msg := notify.Message{Keyboard: requestKeyboard(batchUID)}
	if batch, ok := r.cache.Get(batchUID); ok {
		msg.Text = batchCaption(batch, ident)
		msg.PhotoURL = batch.CoverPhoto
	} else {
		msg.Text = requestFallbackCaption(batchUID, ident)
	}

	r.notifier.Broadcast(ctx, msg)
	r.answer(ctx, callbackID, requestSentText, true)
}

func (r *Router) addBatch(ctx context.Context, ident Identity, chatID int64, callbackID, batchUID string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.answer(ctx, callbackID, notAuthorizedText, true)
		return
	}

	r.answer(ctx, callbackID, "🔄 Adding batch to system...", false)

	outcome := r.pipeline.Onboard(ctx, batchUID)
	switch outcome.Result {
	case onboard.Success:
		r.send(ctx, chatID, notify.Message{Text: fmt.Sprintf("✅ Batch %s successfully added to the system!", batchUID)})
	case onboard.PartialFailure:
		r.send(ctx, chatID, notify.Message{
			Text: fmt.Sprintf("⚠️ Batch %s was registered but the publish step failed. It needs manual reconciliation.", batchUID),
		})
	default:
		r.send(ctx, chatID, notify.Message{Text: fmt.Sprintf("❌ Failed to register batch %s. Nothing was published.", batchUID)})
	}
}

func (r *Router) updateMenu(ctx context.Context, ident Identity, chatID int64, messageID int, callbackID string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.answer(ctx, callbackID, notAuthorizedText, true)
		return
	}

	if err := r.transport.Edit(ctx, chatID, messageID, updateMenuText, updateMenuKeyboard()); err != nil {
		slog.Warn("Update menu edit failed", "error", err)
	}
	r.answer(ctx, callbackID, "", false)
}

func (r *Router) autoUpdateMenu(ctx context.Context, ident Identity, chatID int64, messageID int, callbackID string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.answer(ctx, callbackID, notAuthorizedText, true)
		return
	}

	if err := r.transport.Edit(ctx, chatID, messageID, autoUpdateMenuText, autoUpdateMenuKeyboard(r.autoUpdate.Armed())); err != nil {
		slog.Warn("Auto update menu edit failed", "error", err)
	}
	r.answer(ctx, callbackID, "", false)
}

func (r *Router) toggleAutoUpdate(ctx context.Context, ident Identity, chatID int64, messageID int, callbackID string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.answer(ctx, callbackID, notAuthorizedText, true)
		return
	}

	armed := r.autoUpdate.Toggle()
	if err := r.transport.EditKeyboard(ctx, chatID, messageID, autoUpdateMenuKeyboard(armed)); err != nil {
		slog.Warn("Auto update keyboard edit failed", "error", err)
	}

	status := "disabled"
	if armed {
		status = "enabled"
	}
	r.answer(ctx, callbackID, "Auto update "+status, false)
}

func (r *Router) manualUpdate(ctx context.Context, ident Identity, chatID int64, messageID int, callbackID string) {
	if !r.gate.IsPrivileged(ident.ID) {
		r.answer(ctx, callbackID, notAuthorizedText, true)
		return
	}

	if err := r.transport.Edit(ctx, chatID, messageID, "🔄 Starting manual batch update...", nil); err != nil {
		slog.Warn("Manual update edit failed", "error", err)
	}

	attempted, err := r.pipeline.Sweep(ctx)
	var result string
	if err != nil {
		result = "❌ Failed to complete manual update. Please try again later."
	} else {
		result = fmt.Sprintf("✅ Manual Update Completed!\n\nSuccessfully updated %d batches.", attempted)
	}

	if err := r.transport.Edit(ctx, chatID, messageID, result, nil); err != nil {
		slog.Warn("Manual update result edit failed", "error", err)
	}
	r.answer(ctx, callbackID, "", false)
}

func (r *Router) send(ctx context.Context, chatID int64, msg notify.Message) {
	if err := r.transport.Send(ctx, chatID, msg); err != nil {
		slog.Warn("Send failed", "chat_id", chatID, "error", err)
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string, alert bool) {
	if strings.TrimSpace(callbackID) == "" {
		return
	}
	if err := r.transport.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		slog.Warn("Callback answer failed", "error", err)
	}
}
