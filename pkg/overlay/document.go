package overlay

import (
	"fmt"
	"slices"
	"strings"
)

// Document is the text of a boot configuration file in one of the three
// supported formats. Apply returns a new Document with the overlay
// registered and the toggles asserted; the receiver is left untouched.
type Document interface {
	Format() Format
	Apply(id string, toggles ToggleSet) (Document, error)
	String() string
}

// DocumentOptions tunes how overlays are matched against existing text.
type DocumentOptions struct {
	// KernelRelease is needed by extlinux documents to build overlay paths.
	KernelRelease string
	// ExactMatch switches "already present" checks from substring
	// containment to whole-token comparison.
	ExactMatch bool
	// LegacyAppend makes extlinux documents append the overlay path to
	// fdtoverlays lines even when it is already listed.
	LegacyAppend bool
}

// NewDocument wraps text in the Document type for the series' format.
func NewDocument(series Series, text string, opts DocumentOptions) (Document, error) {
	switch series {
	case Series3, SeriesS:
		return UEnvDocument{Text: text, ExactMatch: opts.ExactMatch}, nil
	case Series4:
		return IntfcDocument{Text: text, ExactMatch: opts.ExactMatch}, nil
	case Series5:
		return ExtlinuxDocument{Text: text, KernelRelease: opts.KernelRelease, LegacyAppend: opts.LegacyAppend}, nil
	default:
		return nil, newError(KindUnknownBoardSeries, string(series), nil)
	}
}

// PatchDocument is the pure text transformation behind Patcher: it returns
// text with the overlay registered for the given series.
func PatchDocument(series Series, text, id string, toggles ToggleSet, opts DocumentOptions) (string, error) {
	doc, err := NewDocument(series, text, opts)
	if err != nil {
		return "", err
	}
	patched, err := doc.Apply(id, toggles)
	if err != nil {
		return "", err
	}
	return patched.String(), nil
}

// splitLines trims surrounding whitespace and splits on newlines. Blank
// text yields no lines.
func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// UEnvDocument is a series 3/S uEnv.txt with an "overlays=a b c" line.
type UEnvDocument struct {
	Text       string
	ExactMatch bool
}

func (d UEnvDocument) Format() Format { return FormatUEnv }
func (d UEnvDocument) String() string { return d.Text }

// Apply appends id to every overlays line that does not list it yet, and
// adds an overlays line when the file has none. Toggles do not apply to
// this format.
func (d UEnvDocument) Apply(id string, _ ToggleSet) (Document, error) {
	lines := splitLines(d.Text)
	found := false
	for i, line := range lines {
		if !d.isOverlaysLine(line) {
			continue
		}
		found = true
		if !d.lists(line, id) {
			lines[i] = line + " " + id
		}
	}

	text := joinLines(lines)
	if !found {
		text += "overlays=" + id + "\n"
	}
	return UEnvDocument{Text: text, ExactMatch: d.ExactMatch}, nil
}

func (d UEnvDocument) isOverlaysLine(line string) bool {
	if !d.ExactMatch {
		return strings.Contains(line, "overlays")
	}
	key, _, ok := strings.Cut(line, "=")
	return ok && strings.TrimSpace(key) == "overlays"
}

func (d UEnvDocument) lists(line, id string) bool {
	if !d.ExactMatch {
		return strings.Contains(line, id)
	}
	_, value, _ := strings.Cut(line, "=")
	return slices.Contains(strings.Fields(value), id)
}

// IntfcDocument is a series 4 hw_intfc.conf with "key=on|off" toggle lines
// and "intfc:dtoverlay=<name>" directives, disabled ones prefixed by '#'.
type IntfcDocument struct {
	Text       string
	ExactMatch bool
}

func (d IntfcDocument) Format() Format { return FormatHwIntfc }
func (d IntfcDocument) String() string { return d.Text }

// Apply flips every toggle from its opposite state to the requested one,
// then enables the overlay directive: a commented directive is uncommented,
// an active one (matched as a whole line) is kept, otherwise the directive
// is appended.
func (d IntfcDocument) Apply(id string, toggles ToggleSet) (Document, error) {
	text := d.Text
	for _, t := range toggles {
		text = strings.ReplaceAll(text, t.Turn().String(), t.String())
	}

	enable := "intfc:dtoverlay=" + id
	switch {
	case d.hasDirective(text, "#"+enable):
		text = d.uncomment(text, enable)
	case hasLine(text, enable):
	default:
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += enable + "\n"
	}
	return IntfcDocument{Text: text, ExactMatch: d.ExactMatch}, nil
}

func (d IntfcDocument) hasDirective(text, directive string) bool {
	if !d.ExactMatch {
		return strings.Contains(text, directive)
	}
	return hasLine(text, directive)
}

// hasLine reports whether text has a line equal to want, ignoring
// surrounding whitespace.
func hasLine(text, want string) bool {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == want {
			return true
		}
	}
	return false
}

func (d IntfcDocument) uncomment(text, enable string) string {
	if !d.ExactMatch {
		return strings.ReplaceAll(text, "#"+enable, enable)
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "#"+enable {
			lines[i] = strings.Replace(line, "#"+enable, enable, 1)
		}
	}
	return strings.Join(lines, "\n")
}

// ExtlinuxDocument is a series 5 extlinux.conf boot menu.
type ExtlinuxDocument struct {
	Text          string
	KernelRelease string
	LegacyAppend  bool
}

func (d ExtlinuxDocument) Format() Format { return FormatExtlinux }
func (d ExtlinuxDocument) String() string { return d.Text }

// Apply adds the overlay path to every fdtoverlays line. When the menu has
// no fdtoverlays line yet, one is inserted under each devicetreedir line of
// the running kernel. Paths already listed are skipped unless LegacyAppend
// is set.
func (d ExtlinuxDocument) Apply(id string, _ ToggleSet) (Document, error) {
	if d.KernelRelease == "" {
		return nil, fmt.Errorf("extlinux: kernel release is required to register overlay %s", id)
	}
	dtbo := extlinuxOverlayPath(d.KernelRelease, id)
	lines := splitLines(d.Text)

	var out []string
	if strings.Contains(d.Text, "fdtoverlays") {
		for _, line := range lines {
			if strings.Contains(line, "fdtoverlays") &&
				(d.LegacyAppend || !slices.Contains(strings.Fields(line), dtbo)) {
				line += " " + dtbo
			}
			out = append(out, line)
		}
	} else {
		anchor := "devicetreedir /dtbs/" + d.KernelRelease
		inserted := false
		for _, line := range lines {
			out = append(out, line)
			if strings.Contains(line, anchor) {
				out = append(out, "    fdtoverlays "+dtbo)
				inserted = true
			}
		}
		if !inserted {
			return nil, newError(KindMalformedConfig, anchor,
				fmt.Errorf("no fdtoverlays or %q line to register overlay %s", anchor, id))
		}
	}

	return ExtlinuxDocument{
		Text:          joinLines(out),
		KernelRelease: d.KernelRelease,
		LegacyAppend:  d.LegacyAppend,
	}, nil
}
