package agent

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/relaykit/conduit/pkg/models"
)

// markdownLinkPattern matches a markdown link: [label](url).
var markdownLinkPattern = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)

// rawURLPattern matches a bare http(s) URL, used as the fallback heuristic
// when scanning tool-result text for an artifact link.
var rawURLPattern = regexp.MustCompile(`https?://[^\s)]+`)

// AntiHallucination inspects a specialist's final response for a required
// artifact link and, for file-producing routes, suppresses the raw tool
// output before it reaches the supervisor transcript, per spec §4.6.
type AntiHallucination struct {
	// BlobHosts are the blob-store hostnames the raw-URL heuristic treats as
	// artifact-looking, sourced from SUPABASE_URL's host.
	BlobHosts []string
}

// NewAntiHallucination builds a validator scoped to the given blob-store
// hostnames.
func NewAntiHallucination(blobHosts ...string) *AntiHallucination {
	return &AntiHallucination{BlobHosts: blobHosts}
}

// EnsureLink returns response unchanged if it already contains a markdown
// link. Otherwise it scans toolResults (most recent first) for the most
// recent artifact-looking URL and appends it as a labelled markdown link.
// If no candidate is found, response is returned as-is; the caller is
// responsible for logging the miss (§7h).
func (a *AntiHallucination) EnsureLink(response string, toolResults []models.Message) (string, bool) {
	if markdownLinkPattern.MatchString(response) {
		return response, true
	}

	url, ok := a.findArtifactURL(toolResults)
	if !ok {
		return response, false
	}
	return strings.TrimSpace(response) + fmt.Sprintf("\n\n[Baixar Arquivo](%s)", url), true
}

// findArtifactURL scans tool-result messages in reverse order (most recent
// first) for the most recent URL that looks like an artifact: present in a
// markdown link, or a raw URL whose host matches a configured blob host.
func (a *AntiHallucination) findArtifactURL(toolResults []models.Message) (string, bool) {
	for i := len(toolResults) - 1; i >= 0; i-- {
		m := toolResults[i]
		if m.Role != models.RoleTool {
			continue
		}
		if match := markdownLinkPattern.FindStringSubmatch(m.ToolResultText); match != nil {
			return match[1], true
		}
		if candidate, ok := a.firstMatchingRawURL(m.ToolResultText); ok {
			return candidate, true
		}
	}
	return "", false
}

func (a *AntiHallucination) firstMatchingRawURL(text string) (string, bool) {
	for _, candidate := range rawURLPattern.FindAllString(text, -1) {
		if a.hostMatches(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (a *AntiHallucination) hostMatches(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, host := range a.BlobHosts {
		if host != "" && strings.EqualFold(parsed.Hostname(), host) {
			return true
		}
	}
	return false
}

// SuppressForFileRoute replaces a file-producing specialist's raw output
// with a minimal confirmation plus the extracted markdown link(s), so the
// supervisor transcript never carries the artifact's internal structure.
func SuppressForFileRoute(response string) string {
	links := markdownLinkPattern.FindAllString(response, -1)
	if len(links) == 0 {
		return "File generated."
	}
	return "File generated. " + strings.Join(links, " ")
}
