// Package main provides a media plugin for macOS. It plays, pauses or mutes
// in response to reveal and conceal events.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

const defaultApp = "Music"

// Config is the binding configuration.
type Config struct {
	App string `json:"app"`
}

// scriptFunc builds the AppleScript for an event against a player app.
type scriptFunc func(event, app string) (string, error)

var actionHandlers = map[string]scriptFunc{
	"play":   func(_, app string) (string, error) { return tell(app, "play"), nil },
	"pause":  func(_, app string) (string, error) { return tell(app, "pause"), nil },
	"toggle": func(_, app string) (string, error) { return tell(app, "playpause"), nil },
	"follow": follow,
	"mute":   mute,
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(handle(req, runAppleScript))
}

func handle(req plugin.Request, run func(script string) error) plugin.Response {
	build, ok := actionHandlers[req.Action]
	if !ok {
		return plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	cfg := Config{App: defaultApp}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return plugin.Response{Error: fmt.Sprintf("failed to parse config: %v", err)}
		}
		if cfg.App == "" {
			cfg.App = defaultApp
		}
	}

	script, err := build(req.Event, cfg.App)
	if err == nil {
		err = run(script)
	}
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}
	return plugin.Response{Success: true}
}

// follow plays on reveal and pauses on conceal.
func follow(event, app string) (string, error) {
	switch event {
	case "reveal":
		return tell(app, "play"), nil
	case "conceal":
		return tell(app, "pause"), nil
	}
	return "", fmt.Errorf("unsupported event %q", event)
}

// mute silences output on conceal and restores it on reveal.
func mute(event, _ string) (string, error) {
	switch event {
	case "reveal":
		return `set volume output muted false`, nil
	case "conceal":
		return `set volume output muted true`, nil
	}
	return "", fmt.Errorf("unsupported event %q", event)
}

func tell(app, command string) string {
	return fmt.Sprintf(`tell application "%s" to %s`, strings.ReplaceAll(app, `"`, `\"`), command)
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
