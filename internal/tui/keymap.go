package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Action represents an editor command that can be triggered by key bindings.
type Action int

const (
	// ActionNone represents no action (the key is passed to the focused field).
	ActionNone Action = iota

	// Suggestion actions
	ActionAcceptSuggestion  // Insert the shown suggestion (Tab)
	ActionRetrySuggestion   // Ask for a different suggestion (Shift+Tab)
	ActionDismissSuggestion // Hide the suggestion (Escape)

	// Editor actions
	ActionNextField    // Move from the title to the body (Enter in the title)
	ActionSwitchFocus  // Toggle focus between title and body (Ctrl+T)
	ActionSave         // Save now (Ctrl+S)
	ActionCopyDocument // Copy the body to the clipboard (Ctrl+Y)
	ActionQuit         // Save and exit (Ctrl+C, Ctrl+Q)

	// Dialog actions
	ActionConfirm // Accept the dialog (y, Enter)
	ActionDecline // Close the dialog (n, Escape)
)

// String returns the string representation of an Action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionAcceptSuggestion:
		return "AcceptSuggestion"
	case ActionRetrySuggestion:
		return "RetrySuggestion"
	case ActionDismissSuggestion:
		return "DismissSuggestion"
	case ActionNextField:
		return "NextField"
	case ActionSwitchFocus:
		return "SwitchFocus"
	case ActionSave:
		return "Save"
	case ActionCopyDocument:
		return "CopyDocument"
	case ActionQuit:
		return "Quit"
	case ActionConfirm:
		return "Confirm"
	case ActionDecline:
		return "Decline"
	default:
		return "Unknown"
	}
}

// KeyBinding maps key sequences to an action.
type KeyBinding struct {
	// Keys is the list of key sequences that trigger this binding.
	// Each string should be a valid tea.KeyMsg string representation.
	Keys []string
	// Action is the action to perform when this binding is triggered.
	Action Action
}

// KeyMap holds the key bindings for one mode of the editor.
type KeyMap struct {
	bindings []KeyBinding
	lookup   map[string]Action
}

// NewKeyMap creates a new KeyMap with the given bindings.
func NewKeyMap(bindings []KeyBinding) *KeyMap {
	km := &KeyMap{
		bindings: bindings,
		lookup:   make(map[string]Action),
	}
	km.rebuildLookup()
	return km
}

// rebuildLookup must be called after any modification to bindings.
func (km *KeyMap) rebuildLookup() {
	km.lookup = make(map[string]Action)
	for _, b := range km.bindings {
		for _, key := range b.Keys {
			km.lookup[key] = b.Action
		}
	}
}

// DefaultKeyMap returns the bindings used while editing.
func DefaultKeyMap() *KeyMap {
	return NewKeyMap([]KeyBinding{
		{Keys: []string{"tab"}, Action: ActionAcceptSuggestion},
		{Keys: []string{"shift+tab"}, Action: ActionRetrySuggestion},
		{Keys: []string{"esc"}, Action: ActionDismissSuggestion},

		{Keys: []string{"enter"}, Action: ActionNextField},
		{Keys: []string{"ctrl+t"}, Action: ActionSwitchFocus},
		{Keys: []string{"ctrl+s"}, Action: ActionSave},
		{Keys: []string{"ctrl+y"}, Action: ActionCopyDocument},
		{Keys: []string{"ctrl+c", "ctrl+q"}, Action: ActionQuit},
	})
}

// DialogKeyMap returns the bindings used while a confirmation dialog is open.
func DialogKeyMap() *KeyMap {
	return NewKeyMap([]KeyBinding{
		{Keys: []string{"y", "Y", "enter"}, Action: ActionConfirm},
		{Keys: []string{"n", "N", "esc"}, Action: ActionDecline},
		{Keys: []string{"ctrl+c", "ctrl+q"}, Action: ActionQuit},
	})
}

// Lookup finds the action for the given key message.
// Returns ActionNone if no binding matches.
func (km *KeyMap) Lookup(msg tea.KeyMsg) Action {
	if action, ok := km.lookup[msg.String()]; ok {
		return action
	}
	return ActionNone
}

// SetBinding adds or updates a key binding.
// If a binding for the same action already exists, it will be replaced.
func (km *KeyMap) SetBinding(binding KeyBinding) {
	for i, b := range km.bindings {
		if b.Action == binding.Action {
			km.bindings[i] = binding
			km.rebuildLookup()
			return
		}
	}
	km.bindings = append(km.bindings, binding)
	km.rebuildLookup()
}

// GetBinding returns the binding for the given action, or nil if not found.
func (km *KeyMap) GetBinding(action Action) *KeyBinding {
	for i := range km.bindings {
		if km.bindings[i].Action == action {
			return &km.bindings[i]
		}
	}
	return nil
}

// Help returns the first key bound to action in display form, e.g. "Tab".
func (km *KeyMap) Help(action Action) string {
	b := km.GetBinding(action)
	if b == nil || len(b.Keys) == 0 {
		return ""
	}

	parts := strings.Split(b.Keys[0], "+")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "+")
}
