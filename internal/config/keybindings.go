package config

import (
	"fmt"
	"slices"
	"strings"
)

// Desktop actions that keys can be bound to.
const (
	ActionCloseWindow    = "close_window"
	ActionMinimizeWindow = "minimize_window"
	ActionToggleMaximize = "toggle_maximize"
	ActionRestoreAll     = "restore_all"
	ActionNextWindow     = "next_window"
	ActionPrevWindow     = "prev_window"
	ActionToggleHelp     = "toggle_help"
	ActionQuit           = "quit"
)

// ActionOpenApp returns the action that opens the n-th dock app (1-based).
func ActionOpenApp(n int) string {
	return fmt.Sprintf("open_app_%d", n)
}

// ActionDescriptions maps actions to help text.
var ActionDescriptions = map[string]string{
	ActionCloseWindow:    "Close window",
	ActionMinimizeWindow: "Minimize window",
	ActionToggleMaximize: "Maximize / restore window",
	ActionRestoreAll:     "Restore all",
	ActionNextWindow:     "Next window",
	ActionPrevWindow:     "Previous window",
	ActionToggleHelp:     "Toggle help",
	ActionQuit:           "Quit",
	"open_app_1":         "Open dock app 1",
	"open_app_2":         "Open dock app 2",
	"open_app_3":         "Open dock app 3",
	"open_app_4":         "Open dock app 4",
	"open_app_5":         "Open dock app 5",
}

func defaultDesktopKeys() map[string][]string {
	return map[string][]string{
		ActionCloseWindow:    {"x"},
		ActionMinimizeWindow: {"m"},
		ActionToggleMaximize: {"f", "enter"},
		ActionRestoreAll:     {"M", "shift+m"},
		ActionNextWindow:     {"tab"},
		ActionPrevWindow:     {"shift+tab"},
		ActionToggleHelp:     {"?"},
		ActionQuit:           {"q", "ctrl+c"},
		"open_app_1":         {"1"},
		"open_app_2":         {"2"},
		"open_app_3":         {"3"},
		"open_app_4":         {"4"},
		"open_app_5":         {"5"},
	}
}

// KeybindRegistry resolves keys to actions and back.
type KeybindRegistry struct {
	actionToKeys map[string][]string
	keyToAction  map[string]string
	normalizer   *KeyNormalizer
}

// NewKeybindRegistry builds a registry from cfg's desktop bindings.
func NewKeybindRegistry(cfg *Config) *KeybindRegistry {
	r := &KeybindRegistry{
		actionToKeys: make(map[string][]string),
		keyToAction:  make(map[string]string),
		normalizer:   NewKeyNormalizer(),
	}
	actions := make([]string, 0, len(cfg.Keybindings.Desktop))
	for action := range cfg.Keybindings.Desktop {
		actions = append(actions, action)
	}
	// deterministic winner when two actions claim the same key
	slices.Sort(actions)
	for _, action := range actions {
		keys := cfg.Keybindings.Desktop[action]
		r.actionToKeys[action] = slices.Clone(keys)
		for _, key := range keys {
			for _, k := range r.normalizer.NormalizeKey(key) {
				if _, taken := r.keyToAction[k]; !taken {
					r.keyToAction[k] = action
				}
			}
		}
	}
	return r
}

// GetKeys returns the keys bound to action.
func (r *KeybindRegistry) GetKeys(action string) []string {
	return r.actionToKeys[action]
}

// GetAction returns the action bound to key, or "".
func (r *KeybindRegistry) GetAction(key string) string {
	if a, ok := r.keyToAction[key]; ok {
		return a
	}
	for _, k := range r.normalizer.NormalizeKey(key) {
		if a, ok := r.keyToAction[k]; ok {
			return a
		}
	}
	return ""
}

// GetKeysForDisplay formats the keys of action for help output.
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	keys := r.actionToKeys[action]
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = displayKey(k)
	}
	return strings.Join(out, ", ")
}

// Actions returns every bound action in sorted order.
func (r *KeybindRegistry) Actions() []string {
	actions := make([]string, 0, len(r.actionToKeys))
	for a := range r.actionToKeys {
		actions = append(actions, a)
	}
	slices.Sort(actions)
	return actions
}

func displayKey(k string) string {
	parts := strings.Split(k, "+")
	for i, p := range parts {
		switch p {
		case "ctrl", "alt", "shift", "enter", "tab", "esc", "space":
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "+")
}

// KeyNormalizer canonicalizes key strings so config spellings match what the
// terminal reports.
type KeyNormalizer struct {
	aliases map[string]string
}

func NewKeyNormalizer() *KeyNormalizer {
	return &KeyNormalizer{aliases: map[string]string{
		"return":     "enter",
		"escape":     "esc",
		"del":        "delete",
		"spacebar":   "space",
		"control":    "ctrl",
		"opt":        "alt",
		"option":     "alt",
		"pgup":       "pageup",
		"pgdown":     "pagedown",
		"backtab":    "shift+tab",
		"cmd":        "super",
		"command":    "super",
		"altgr":      "alt",
		"meta":       "alt",
		"up arrow":   "up",
		"down arrow": "down",
	}}
}

// NormalizeKey returns the spellings a key may arrive as. The first entry is
// the lowercase form; aliases follow.
func (n *KeyNormalizer) NormalizeKey(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	// a lone uppercase letter is what the terminal sends for shift+letter
	if len(key) == 1 {
		if key != strings.ToLower(key) {
			return []string{key, "shift+" + strings.ToLower(key)}
		}
		return []string{key}
	}

	lower := strings.ToLower(key)
	out := []string{lower}
	parts := strings.Split(lower, "+")
	changed := false
	for i, p := range parts {
		if a, ok := n.aliases[p]; ok {
			parts[i] = a
			changed = true
		}
	}
	if changed {
		out = append(out, strings.Join(parts, "+"))
	}
	if a, ok := n.aliases[lower]; ok && !slices.Contains(out, a) {
		out = append(out, a)
	}
	if len(parts) == 2 && parts[0] == "shift" && len(parts[1]) == 1 {
		out = append(out, strings.ToUpper(parts[1]))
	}
	return out
}

// ValidateKey reports whether key is a usable binding.
func (n *KeyNormalizer) ValidateKey(key string) (bool, string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, "key is empty"
	}
	parts := strings.Split(strings.ToLower(key), "+")
	for i, p := range parts {
		if p == "" {
			return false, fmt.Sprintf("empty segment in %q", key)
		}
		if i < len(parts)-1 {
			switch n.canonical(p) {
			case "ctrl", "alt", "shift", "super":
			default:
				return false, fmt.Sprintf("unknown modifier %q", p)
			}
		}
	}
	return true, ""
}

func (n *KeyNormalizer) canonical(p string) string {
	if a, ok := n.aliases[p]; ok {
		return a
	}
	return p
}

// Keybinding is one row of help output.
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection groups related help rows.
type KeybindingSection struct {
	Title    string
	Bindings []Keybinding
}

// GetKeybindings returns the help sections for the desktop. With a nil
// registry the defaults are used.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		registry = NewKeybindRegistry(DefaultConfig())
	}

	windows := KeybindingSection{Title: "WINDOWS"}
	for _, action := range []string{
		ActionCloseWindow, ActionMinimizeWindow, ActionToggleMaximize,
		ActionRestoreAll, ActionNextWindow, ActionPrevWindow,
	} {
		addBinding(&windows, registry, action, ActionDescriptions[action])
	}

	dock := KeybindingSection{Title: "DOCK"}
	for i := 1; i <= 9; i++ {
		addBinding(&dock, registry, ActionOpenApp(i), fmt.Sprintf("Open or restore dock app %d", i))
	}

	general := KeybindingSection{Title: "GENERAL"}
	addBinding(&general, registry, ActionToggleHelp, ActionDescriptions[ActionToggleHelp])
	addBinding(&general, registry, ActionQuit, ActionDescriptions[ActionQuit])

	mouse := KeybindingSection{
		Title: "MOUSE",
		Bindings: []Keybinding{
			{"Click dock icon", "Open or restore app"},
			{"Drag title bar", "Move window"},
			{"●  ●  ●", "Close / minimize / maximize"},
		},
	}

	var sections []KeybindingSection
	for _, s := range []KeybindingSection{windows, dock, general, mouse} {
		if len(s.Bindings) > 0 {
			sections = append(sections, s)
		}
	}
	return sections
}

func addBinding(section *KeybindingSection, registry *KeybindRegistry, action, description string) {
	keys := registry.GetKeysForDisplay(action)
	if keys != "" {
		section.Bindings = append(section.Bindings, Keybinding{Key: keys, Description: description})
	}
}
