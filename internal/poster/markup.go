package poster

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TextSpec carries the three text blocks rendered onto a poster.
type TextSpec struct {
	Word    string
	Meaning string
	Example string
}

const (
	canvasWidth  = 1024
	canvasHeight = 1024

	meaningWrapChars = 42
	exampleWrapChars = 38
	wrapMaxLines     = 3

	headerBandRatio = 0.12
	footerBandRatio = 0.10
)

// Candidate filenames checked in order before falling back to a directory
// scan. The variable-font entries cover both the upstream Inter release
// name and its comma-stripped variant.
var fontCandidates = []string{
	"Inter-Regular.ttf",
	"Inter-Regular.woff2",
	"Inter-VariableFont_opsz,wght.ttf",
	"Inter-VariableFont_opsz_wght.ttf",
	"Inter-VariableFont.ttf",
	"inter.ttf",
}

// FindFont locates a font file under dir. Candidates win over the scan so a
// deliberate Inter install is preferred to whatever else sits in the folder.
func FindFont(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}
	for _, name := range fontCandidates {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".ttf") || strings.HasSuffix(name, ".woff2") {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}

// EmbedFontCSS returns an @font-face rule with the first font under dir
// inlined as a base64 data URL, or "" when no font is usable.
func EmbedFontCSS(dir string) string {
	path, ok := FindFont(dir)
	if !ok {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return fontFaceCSS(path, data)
}

func fontFaceCSS(path string, data []byte) string {
	mime, format := "font/ttf", "truetype"
	if strings.HasSuffix(strings.ToLower(path), ".woff2") {
		mime, format = "font/woff2", "woff2"
	}
	b64 := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("@font-face{font-family: 'EmbeddedFont'; src: url('data:%s;base64,%s') format('%s'); font-weight: 400; font-style: normal;}", mime, b64, format)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// wrapText greedily breaks text at whitespace into lines of at most
// maxChars characters and silently drops everything past maxLines. A single
// word longer than maxChars still gets a line of its own.
func wrapText(text string, maxChars, maxLines int) []string {
	lines := make([]string, 0, maxLines)
	current := ""
	for _, w := range strings.Fields(text) {
		candidate := strings.TrimSpace(current + " " + w)
		if len(candidate) <= maxChars {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = w
		if len(lines) >= maxLines {
			break
		}
	}
	if current != "" && len(lines) < maxLines {
		lines = append(lines, current)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

// BuildOverlay renders the poster text layer as standalone SVG markup.
// fontCSS, when non-empty, is an @font-face rule injected into the style
// block so the markup stays self-contained.
func BuildOverlay(spec TextSpec, fontCSS string) string {
	canvasH := float64(canvasHeight)
	headerHeight := int(canvasH * headerBandRatio)
	footerHeight := int(canvasH * footerBandRatio)
	meaningLines := wrapText(spec.Meaning, meaningWrapChars, wrapMaxLines)
	exampleLines := wrapText(spec.Example, exampleWrapChars, wrapMaxLines)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, canvasWidth, canvasHeight)
	b.WriteString("<style>")
	b.WriteString(fontCSS)
	b.WriteString(`.heading { font-family: 'EmbeddedFont', 'Helvetica Neue', Arial, sans-serif; font-size: 40px; fill: #ffffff; letter-spacing: 1px; text-transform: uppercase; }`)
	b.WriteString(`.word { font-family: 'EmbeddedFont', 'Helvetica Neue', Arial, sans-serif; font-size: 88px; font-weight: bold; fill: #0B3D91; }`)
	b.WriteString(`.label { font-family: 'EmbeddedFont', 'Helvetica Neue', Arial, sans-serif; font-size: 36px; fill: #333; font-weight: 700; }`)
	b.WriteString(`.meaning { font-family: 'EmbeddedFont', 'Helvetica Neue', Arial, sans-serif; font-size: 50px; fill: #333; }`)
	b.WriteString(`.example { font-family: 'EmbeddedFont', 'Helvetica Neue', Arial, sans-serif; font-size: 50px; fill: #555; font-style: italic; }`)
	b.WriteString("</style>")
	fmt.Fprintf(&b, `<rect x="0" y="0" width="100%%" height="%d" fill="#0B3D91" />`, headerHeight)
	fmt.Fprintf(&b, `<rect x="0" y="%d" width="100%%" height="%d" fill="#0B3D91" />`, canvasHeight-footerHeight, footerHeight)
	fmt.Fprintf(&b, `<text x="50%%" y="%d" text-anchor="middle" class="heading">Word of the Day</text>`, int(float64(headerHeight)*0.6))
	fmt.Fprintf(&b, `<text x="50%%" y="24%%" text-anchor="middle" class="word">%s</text>`, escapeXML(spec.Word))
	writeTextBlock(&b, "36%", "label", "meaning", "Meaning", meaningLines)
	writeTextBlock(&b, "60%", "label", "example", "Example", exampleLines)
	b.WriteString("</svg>")
	return b.String()
}

func writeTextBlock(b *strings.Builder, y, labelClass, lineClass, label string, lines []string) {
	fmt.Fprintf(b, `<g><text x="50%%" y="%s" text-anchor="middle">`, y)
	fmt.Fprintf(b, `<tspan class="%s" x="50%%" dy="0">%s</tspan>`, labelClass, label)
	for _, line := range lines {
		fmt.Fprintf(b, `<tspan class="%s" x="50%%" dy="1.2em">%s</tspan>`, lineClass, escapeXML(line))
	}
	b.WriteString("</text></g>")
}
