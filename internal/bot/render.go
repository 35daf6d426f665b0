package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/catalog"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/notify"
	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/token"
)

var istZone = time.FixedZone("IST", (5*60+30)*60)

const (
	welcomeText        = "🎉 Welcome to SDV Bot!\n\n👇 Please select an option from the menu below:"
	selectBatchText    = "👇 Select one of the batches below:"
	updateMenuText     = "🔄 Batches Update Menu\n\nPlease select an option:"
	autoUpdateMenuText = "⚙️ Auto Update Settings"

	goalsFetchFailedText   = "❌ Unable to fetch goals. Please try again."
	batchesFetchFailedText = "❌ No batches found. Please try again later."
	selectionExpiredText   = "❌ Batch details not available. Please select again."
	notAuthorizedText      = "❌ You are not authorized to perform this action."
	requestSentText        = "✅ Request sent. An operator will add it soon."
	genericRetryText       = "❌ An error occurred. Please try again."
)

// button encodes a token into an inline button. Encoding failures are a
// bug in the caller; the button is logged and dropped rather than sent
// malformed.
func button(label string, tok token.Token) (notify.Button, bool) {
	data, err := tok.Encode()
	if err != nil {
		slog.Error("Dropping button with unencodable token", "label", label, "error", err)
		return notify.Button{}, false
	}
	return notify.Button{Label: label, Data: data}, true
}

func appendButtonRow(kb notify.Keyboard, buttons ...notify.Button) notify.Keyboard {
	if len(buttons) == 0 {
		return kb
	}
	return append(kb, buttons)
}

func mainMenuKeyboard(privileged bool) notify.Keyboard {
	var kb notify.Keyboard
	if b, ok := button("🎯 Goals", token.ShowGoals(0)); ok {
		kb = appendButtonRow(kb, b)
	}
	if privileged {
		if b, ok := button("🔄 Batches Update", token.UpdateMenu()); ok {
			kb = appendButtonRow(kb, b)
		}
	}
	return kb
}

// goalsKeyboard renders page p of the goal list: ten per page, one goal
// per row, then a navigation row. Previous appears iff p > 0, Next iff
// more goals remain past this page.
func goalsKeyboard(goals []catalog.Goal, page int) notify.Keyboard {
	start := page * catalog.PageSize
	if start < 0 || start >= len(goals) {
		return nil
	}
	end := start + catalog.PageSize
	if end > len(goals) {
		end = len(goals)
	}

	var kb notify.Keyboard
	for _, goal := range goals[start:end] {
		if b, ok := button(goal.Name, token.Goal(goal.UID, 0)); ok {
			kb = appendButtonRow(kb, b)
		}
	}

	var nav []notify.Button
	if page > 0 {
		if b, ok := button("⬅️ Previous", token.Goals(page-1)); ok {
			nav = append(nav, b)
		}
	}
	if end < len(goals) {
		if b, ok := button("Next ➡️", token.Goals(page+1)); ok {
			nav = append(nav, b)
		}
	}
	return appendButtonRow(kb, nav...)
}

func batchesKeyboard(page *catalog.BatchPage, goalUID string, offset int) notify.Keyboard {
	var kb notify.Keyboard
	for _, batch := range page.Results {
		if b, ok := button(batch.Name, token.Batch(batch.UID)); ok {
			kb = appendButtonRow(kb, b)
		}
	}

	var nav []notify.Button
	if page.HasPrevious {
		if b, ok := button("⬅️ Previous", token.Goal(goalUID, offset-catalog.PageSize)); ok {
			nav = append(nav, b)
		}
	}
	if page.HasNext {
		if b, ok := button("Next ➡️", token.Goal(goalUID, offset+catalog.PageSize)); ok {
			nav = append(nav, b)
		}
	}
	return appendButtonRow(kb, nav...)
}

func batchDetailKeyboard(batchUID string, privileged bool) notify.Keyboard {
	var kb notify.Keyboard
	if b, ok := button("📥 Request to Add", token.Request(batchUID)); ok {
		kb = appendButtonRow(kb, b)
	}
	if privileged {
		if b, ok := button("➕ Add Batch", token.Add(batchUID)); ok {
			kb = appendButtonRow(kb, b)
		}
	}
	return kb
}

// requestKeyboard is what operators see on a fanned-out request.
func requestKeyboard(batchUID string) notify.Keyboard {
	var kb notify.Keyboard
	if b, ok := button("📋 Copy UID", token.Copy(batchUID)); ok {
		kb = appendButtonRow(kb, b)
	}
	if b, ok := button("➕ Add Batch", token.Add(batchUID)); ok {
		kb = appendButtonRow(kb, b)
	}
	return kb
}

func updateMenuKeyboard() notify.Keyboard {
	var kb notify.Keyboard
	if b, ok := button("🔄 Auto Update", token.AutoUpdateMenu()); ok {
		kb = appendButtonRow(kb, b)
	}
	if b, ok := button("🛠 Manual Update", token.ManualUpdate()); ok {
		kb = appendButtonRow(kb, b)
	}
	return kb
}

func autoUpdateMenuKeyboard(armed bool) notify.Keyboard {
	status := "OFF ❌"
	if armed {
		status = "ON ✅"
	}

	var kb notify.Keyboard
	if b, ok := button("Auto Update: "+status, token.ToggleAutoUpdate()); ok {
		kb = appendButtonRow(kb, b)
	}
	if b, ok := button("🔙 Back", token.UpdateMenu()); ok {
		kb = appendButtonRow(kb, b)
	}
	return kb
}

func batchCaption(b catalog.Batch, ident Identity) string {
	labels := make([]string, 0, len(b.Languages))
	for _, lang := range b.Languages {
		labels = append(labels, lang.Label)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📌 Batch Name: %s\n", b.Name)
	fmt.Fprintf(&sb, "🎯 Goal: %s\n", b.Goal.Name)
	fmt.Fprintf(&sb, "⏰ Start Time: %s\n", b.StartsAt.In(istZone).Format("02 Jan 2006, 03:04 PM")+" IST")
	fmt.Fprintf(&sb, "🌐 Language(s): %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&sb, "🔗 Link: %s\n", b.Permalink)
	sb.WriteString("\n")
	appendRequester(&sb, ident)
	return sb.String()
}

// requestFallbackCaption covers a request for a batch the cache no
// longer holds; the uid is all we know.
func requestFallbackCaption(batchUID string, ident Identity) string {
	var sb strings.Builder
	sb.WriteString("🆕 New Batch Request\n\n")
	fmt.Fprintf(&sb, "🆔 Batch UID: %s\n", batchUID)
	appendRequester(&sb, ident)
	return sb.String()
}

func addConfirmationText(batchUID string, ident Identity) string {
	var sb strings.Builder
	sb.WriteString("🆕 Batch Added via Command\n\n")
	fmt.Fprintf(&sb, "🆔 Batch ID: %s\n", batchUID)
	appendRequester(&sb, ident)
	return sb.String()
}

func appendRequester(sb *strings.Builder, ident Identity) {
	fmt.Fprintf(sb, "👤 Requested By: %s\n", ident.FirstName)
	fmt.Fprintf(sb, "🆔 User ID: %d\n", ident.ID)
	if ident.Username != "" {
		fmt.Fprintf(sb, "📧 Username: @%s\n", ident.Username)
	}
}
