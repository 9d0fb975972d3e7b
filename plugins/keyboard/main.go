// Package main provides a keyboard plugin for macOS. It sends a keystroke
// through AppleScript when a gesture is revealed or concealed.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// Keystroke is a key plus optional modifiers.
type Keystroke struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Config is the binding configuration. A flat Key applies to both events;
// Reveal and Conceal override it per event.
type Config struct {
	Keystroke
	Reveal  *Keystroke `json:"reveal,omitempty"`
	Conceal *Keystroke `json:"conceal,omitempty"`
}

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(handle(req, runAppleScript))
}

// handle resolves the keystroke for req and hands the script to run.
func handle(req plugin.Request, run func(script string) error) plugin.Response {
	switch req.Action {
	case "keystroke", "shortcut":
	default:
		return plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	ks, err := resolveKeystroke(req)
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	if err := run(buildKeystrokeScript(ks.Key, ks.Modifiers)); err != nil {
		return plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return plugin.Response{Success: true}
}

// resolveKeystroke picks the keystroke for the request's event. Params, when
// present, take precedence over the binding config.
func resolveKeystroke(req plugin.Request) (Keystroke, error) {
	if len(req.Params) > 0 {
		var ks Keystroke
		if err := json.Unmarshal(req.Params, &ks); err != nil {
			return Keystroke{}, fmt.Errorf("failed to parse params: %w", err)
		}
		if ks.Key != "" {
			return ks, nil
		}
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return Keystroke{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ks := cfg.Keystroke
	switch {
	case req.Event == "reveal" && cfg.Reveal != nil:
		ks = *cfg.Reveal
	case req.Event == "conceal" && cfg.Conceal != nil:
		ks = *cfg.Conceal
	}
	if ks.Key == "" {
		return Keystroke{}, fmt.Errorf("key is required")
	}
	return ks, nil
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	key = strings.ReplaceAll(key, `"`, `\"`)

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(appleModifiers, ", "))
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

func runAppleScript(script string) error {
	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
