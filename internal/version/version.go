// Package version handles release checks and update notifications.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bral/git-tend/internal/config"
	"github.com/bral/git-tend/internal/logging"
)

const (
	releaseAPIURL = "https://api.github.com/repos/bral/git-tend/releases/latest"
	releasesPage  = "https://github.com/bral/git-tend/releases/latest"
	checkInterval = 24 * time.Hour
)

var noticeStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 2)

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Update describes an available newer release.
type Update struct {
	Latest string
	URL    string
}

// Check reports whether a newer release exists. It queries the release API
// at most once per day; between checks it answers from the cached result in
// the config. Network and API failures are treated as "no update".
func Check(ctx context.Context, currentVersion string, cfg *config.Config) *Update {
	now := time.Now()

	if now.Unix()-cfg.LastVersionCheck < int64(checkInterval.Seconds()) {
		if newer(currentVersion, cfg.LatestKnownVersion) {
			return &Update{Latest: cfg.LatestKnownVersion, URL: releasesPage}
		}
		return nil
	}

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseAPIURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "git-tend/"+currentVersion)

	resp, err := client.Do(req)
	if err != nil {
		logging.Logger.Debug("release check failed", "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logging.Logger.Debug("release check got non-OK status", "status", resp.StatusCode)
		return nil
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil
	}

	cfg.LastVersionCheck = now.Unix()
	cfg.LatestKnownVersion = rel.TagName
	if _, err := config.SaveConfig(*cfg, ""); err != nil {
		logging.Logger.Warn("could not persist release check result", "error", err)
	}

	if newer(currentVersion, rel.TagName) {
		url := rel.HTMLURL
		if url == "" {
			url = releasesPage
		}
		return &Update{Latest: rel.TagName, URL: url}
	}
	return nil
}

// newer compares two tags after stripping the "v" prefix. Plain string
// comparison is good enough for zero-padded-free semver tags of this project.
func newer(current, latest string) bool {
	if latest == "" {
		return false
	}
	return strings.TrimPrefix(latest, "v") > strings.TrimPrefix(current, "v")
}

// ShowUpdateNotification prints the update notice and offers to run the
// upgrade via go install.
func ShowUpdateNotification(currentVersion string, up *Update) {
	body := fmt.Sprintf(
		"New version available: %s (you have %s)\n\nRelease notes: %s",
		up.Latest, currentVersion, up.URL,
	)
	fmt.Println()
	fmt.Println(noticeStyle.Render(body))

	fmt.Print("Update now via go install? (y/N): ")
	var response string
	_, _ = fmt.Scanln(&response)
	if answer := strings.ToLower(strings.TrimSpace(response)); answer != "y" && answer != "yes" {
		return
	}

	cmd := exec.Command("go", "install", "github.com/bral/git-tend/cmd/git-tend@"+up.Latest)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("Automatic update failed. Download the latest release from:")
		fmt.Println("  " + releasesPage)
		return
	}
	fmt.Println("Updated to " + up.Latest + ".")
}
