package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/prosewrites/draftline/internal/assist"
	"github.com/prosewrites/draftline/internal/suggest"
)

// renderSuggestion renders the ghost-text panel for the shown suggestion.
func renderSuggestion(s suggest.Suggestion, width int, keys *KeyMap, styles Styles) string {
	inner := max(width-styles.GhostPanel.GetHorizontalFrameSize(), 10)

	label := s.Type
	if label == "" {
		label = assist.TypeGeneral
	}

	var b strings.Builder
	b.WriteString(styles.GhostLabel.Render(label))
	b.WriteString("\n")
	b.WriteString(styles.Ghost.Render(wordwrap.String(s.Text, inner)))
	b.WriteString("\n")
	b.WriteString(styles.Help.Render(fmt.Sprintf("[%s] accept  [%s] retry  [%s] dismiss",
		keys.Help(ActionAcceptSuggestion),
		keys.Help(ActionRetrySuggestion),
		keys.Help(ActionDismissSuggestion),
	)))

	return styles.GhostPanel.Width(inner).Render(b.String())
}

// renderStatusBar places left and right on one line of the given width,
// dropping right when both do not fit.
func renderStatusBar(left, right string, width int) string {
	leftWidth := ansi.PrintableRuneWidth(left)
	rightWidth := ansi.PrintableRuneWidth(right)

	gap := width - leftWidth - rightWidth
	if gap < 1 {
		return left
	}

	return left + strings.Repeat(" ", gap) + right
}

// renderDialog renders the access notice shown after a 403.
func renderDialog(denied *assist.AccessDeniedError, width, height int, keys *KeyMap, styles Styles) string {
	inner := min(max(width-styles.Dialog.GetHorizontalFrameSize()-4, 20), 60)

	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render("Subscription required"))
	b.WriteString("\n\n")
	b.WriteString(wordwrap.String(denied.Message(), inner))
	if denied.RedirectURL != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Help.Render(wordwrap.String(denied.RedirectURL, inner)))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Open the subscription page? [%s/%s]",
			keys.Help(ActionConfirm), keys.Help(ActionDecline)))
	} else {
		b.WriteString("\n\n")
		b.WriteString(styles.Help.Render(fmt.Sprintf("[%s] close", keys.Help(ActionDecline))))
	}

	box := styles.Dialog.Width(inner).Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderHelp renders the key hints shown under the status bar.
func renderHelp(keys *KeyMap, styles Styles) string {
	hints := []string{
		keys.Help(ActionSwitchFocus) + " switch field",
		keys.Help(ActionSave) + " save",
		keys.Help(ActionCopyDocument) + " copy",
		keys.Help(ActionQuit) + " quit",
	}
	return styles.Help.Render(strings.Join(hints, "  "))
}
