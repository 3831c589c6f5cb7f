// Package clipboard reads and writes the system clipboard through the
// platform's clipboard commands.
package clipboard

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no clipboard command is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// tool is one clipboard command with its copy and paste invocations.
type tool struct {
	name  string
	copy  []string
	paste []string
}

// tools lists clipboard commands per OS, in order of preference.
var tools = map[string][]tool{
	"darwin": {
		{name: "pbcopy", copy: []string{"pbcopy"}, paste: []string{"pbpaste"}},
	},
	"linux": {
		{name: "wl-copy", copy: []string{"wl-copy"}, paste: []string{"wl-paste", "--no-newline"}},
		{name: "xclip", copy: []string{"xclip", "-selection", "clipboard"}, paste: []string{"xclip", "-selection", "clipboard", "-o"}},
		{name: "xsel", copy: []string{"xsel", "--clipboard", "--input"}, paste: []string{"xsel", "--clipboard", "--output"}},
	},
}

func findTool(goos string, lookPath func(string) (string, error)) (tool, error) {
	for _, t := range tools[goos] {
		if _, err := lookPath(t.name); err == nil {
			return t, nil
		}
	}
	return tool{}, ErrClipboardUnavailable
}

// IsAvailable reports whether a clipboard command is installed.
func IsAvailable() bool {
	_, err := findTool(runtime.GOOS, exec.LookPath)
	return err == nil
}

// Hint names the clipboard commands that would make the clipboard available
// on this system.
func Hint() string {
	return hint(runtime.GOOS)
}

func hint(goos string) string {
	var names []string
	for _, t := range tools[goos] {
		names = append(names, t.name)
	}
	if len(names) == 0 {
		return "no clipboard command is supported on " + goos
	}
	return "install one of: " + strings.Join(names, ", ")
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	t, err := findTool(runtime.GOOS, exec.LookPath)
	if err != nil {
		return err
	}
	cmd := exec.Command(t.copy[0], t.copy[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// Paste returns the current clipboard text, used to import a citation list
// copied from a document.
func Paste() (string, error) {
	t, err := findTool(runtime.GOOS, exec.LookPath)
	if err != nil {
		return "", err
	}
	out, err := exec.Command(t.paste[0], t.paste[1:]...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
