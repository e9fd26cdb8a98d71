package scripts

import (
	"regexp"
	"strings"
	"unicode"

	"studiod/pkg/types"
)

var gitCloneRe = regexp.MustCompile(`\bgit\s+clone\s+(.+)$`)

// git clone options that consume the following token.
var cloneValueFlags = map[string]bool{
	"-b": true, "--branch": true, "--depth": true, "-o": true, "--origin": true,
	"-c": true, "--config": true, "--reference": true, "-j": true, "--jobs": true,
}

// ParseNodes extracts plugin items from an install_nodes-style script.
// Every "git clone <repo> [<dest>]" line yields one item; a comment on the
// line directly above supplies the display name.
func ParseNodes(script string) []types.Item {
	lines := splitLines(script)
	var items []types.Item
	ids := make(map[string]bool)
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || isComment(line) {
			continue
		}
		m := gitCloneRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		repo, dest := cloneArgs(m[1])
		if !looksLikeRepo(repo) {
			continue
		}
		repoName := repoBaseName(repo)
		if repoName == "" {
			continue
		}
		folder := repoName
		if d := lastSegment(dest); d != "" && d != "." {
			folder = d
		}
		name := titleWords(repoName)
		if c, ok := precedingComment(lines, i); ok {
			name = c
		}
		items = append(items, types.Item{
			ID:     uniqueID(ids, slug(folder)),
			Name:   name,
			Source: repo,
			Extra:  map[string]string{types.ExtraFolder: folder},
		})
	}
	return items
}

// cloneArgs returns the repository and optional destination from the text
// following "git clone", skipping options and stopping at shell operators.
func cloneArgs(rest string) (repo, dest string) {
	fields := strings.Fields(rest)
	var pos []string
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if isShellOperator(tok) {
			break
		}
		stop := strings.HasSuffix(tok, ";")
		tok = unquote(strings.TrimSuffix(tok, ";"))
		if strings.HasPrefix(tok, "-") {
			if cloneValueFlags[tok] {
				i++
			}
			if stop {
				break
			}
			continue
		}
		if tok != "" {
			pos = append(pos, tok)
		}
		if stop || len(pos) == 2 {
			break
		}
	}
	if len(pos) > 0 {
		repo = pos[0]
	}
	if len(pos) > 1 {
		dest = pos[1]
	}
	return repo, dest
}

func isShellOperator(tok string) bool {
	switch tok {
	case "&&", "||", ";", "|", "&", ">", ">>", "2>", "2>&1":
		return true
	}
	return strings.HasPrefix(tok, ">") || strings.HasPrefix(tok, "2>")
}

func looksLikeRepo(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "git@")
}

// repoBaseName returns the final path segment of a repository locator without ".git".
func repoBaseName(repo string) string {
	s := strings.TrimRight(repo, "/")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(s, ".git")
}

func lastSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// titleWords turns "comfyui-video_helper" into "Comfyui Video Helper".
func titleWords(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || unicode.IsSpace(r) })
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}
