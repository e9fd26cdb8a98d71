package scripts

import (
	"path"
	"regexp"
	"strings"

	"studiod/pkg/types"
)

// UnknownSize is reported when no size comment precedes a download line.
const UnknownSize = "Unknown size"

// WeightExtensions are the file extensions accepted as model weights.
var WeightExtensions = []string{".safetensors", ".ckpt", ".pt", ".pth", ".gguf"}

const fileTok = `("[^"]+"|'[^']+'|\S+)`

// downloadPattern is one argument order of a two-flag download command.
// fileFirst records whether the output flag precedes the quoted URL.
type downloadPattern struct {
	re        *regexp.Regexp
	fileFirst bool
}

var downloadPatterns = []downloadPattern{
	{regexp.MustCompile(`\bwget\s+(?:.*?\s)?-O\s+` + fileTok + `\s+"([^"]+)"`), true},
	{regexp.MustCompile(`\bwget\s+"([^"]+)"\s+(?:.*?\s)?-O\s+` + fileTok), false},
	{regexp.MustCompile(`\bcurl\s+(?:.*?\s)?-o\s+` + fileTok + `\s+"([^"]+)"`), true},
	{regexp.MustCompile(`\bcurl\s+"([^"]+)"\s+(?:.*?\s)?-o\s+` + fileTok), false},
}

// sizeRe requires the number to start a token so "x4.2GB" does not yield "2GB".
var sizeRe = regexp.MustCompile(`(?i)(?:^|[^\w.])(\d+(?:\.\d+)?\s*(?:KB|MB|GB|TB))\b`)

// ParseModels extracts model items from an install_models-style script.
// Only downloads whose output file has a weight extension are kept; the first
// matching pattern on a line wins.
func ParseModels(script string) []types.Item {
	lines := splitLines(script)
	var items []types.Item
	ids := make(map[string]bool)
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || isComment(line) {
			continue
		}
		file, url, ok := matchDownload(line)
		if !ok {
			continue
		}
		base := path.Base(file)
		ext := weightExt(base)
		if ext == "" {
			continue
		}
		stem := base[:len(base)-len(ext)]
		size := UnknownSize
		if c, ok := precedingComment(lines, i); ok {
			if m := sizeRe.FindStringSubmatch(c); m != nil {
				size = m[1]
			}
		}
		items = append(items, types.Item{
			ID:     uniqueID(ids, slug(base)),
			Name:   strings.Join(strings.Fields(separatorsToSpaces(stem)), " "),
			Source: url,
			Extra: map[string]string{
				types.ExtraFilename: base,
				types.ExtraPath:     file,
				types.ExtraSize:     size,
			},
		})
	}
	return items
}

func matchDownload(line string) (file, url string, ok bool) {
	for _, p := range downloadPatterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if p.fileFirst {
			file, url = m[1], m[2]
		} else {
			url, file = m[1], m[2]
		}
		file = unquote(file)
		if file == "" || url == "" {
			return "", "", false
		}
		return file, url, true
	}
	return "", "", false
}

func weightExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range WeightExtensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return name[len(name)-len(ext):]
		}
	}
	return ""
}

func separatorsToSpaces(s string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
