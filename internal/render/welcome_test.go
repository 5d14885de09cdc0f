package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderWelcome(t *testing.T) {
	tests := []struct {
		name      string
		info      WelcomeInfo
		termWidth int
		wantLogo  bool
		wantTexts []string
	}{
		{
			name: "full info with wide terminal",
			info: WelcomeInfo{
				Model:      "meta-llama-3.1-8b-instruct",
				Server:     "http://localhost:1234",
				Version:    "1.0.0",
				SaveCombo:  "ctrl+alt+c",
				ReplyCombo: "ctrl+alt+r",
				QuitCombo:  "esc",
			},
			termWidth: 80,
			wantLogo:  true,
			wantTexts: []string{
				"Social Media Context Reply",
				"version: 1.0.0",
				"server:  http://localhost:1234",
				"model:   meta-llama-3.1-8b-instruct",
				"copy your post, press ctrl+alt+c",
				"copy a comment, press ctrl+alt+r",
				"quit with esc",
				"tip:",
			},
		},
		{
			name: "dev version",
			info: WelcomeInfo{
				Model:   "test-model",
				Version: "dev",
			},
			termWidth: 80,
			wantLogo:  true,
			wantTexts: []string{
				"development",
				"model:   test-model",
				"server:  not configured",
			},
		},
		{
			name: "narrow terminal - no logo",
			info: WelcomeInfo{
				Model:   "test-model",
				Version: "1.0.0",
			},
			termWidth: 30,
			wantLogo:  false,
			wantTexts: []string{
				"Social Media Context Reply",
				"model:   test-model",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			RenderWelcome(&buf, tt.info, tt.termWidth)
			output := buf.String()

			for _, text := range tt.wantTexts {
				assert.Contains(t, output, text, "output should contain %q", text)
			}

			if tt.wantLogo {
				assert.Contains(t, output, "| (__|", "output should contain logo")
			} else {
				assert.NotContains(t, output, "| (__|")
			}
		})
	}
}

func TestRenderWelcome_TwoColumnLayout(t *testing.T) {
	var buf bytes.Buffer
	RenderWelcome(&buf, WelcomeInfo{Model: "m", Server: "http://localhost:1234", Version: "1.0.0"}, 80)

	foundTwoColumn := false
	for _, line := range strings.Split(buf.String(), "\n") {
		hasLogoChars := strings.Contains(line, "|") || strings.Contains(line, "_")
		hasInfoText := strings.Contains(line, "version") || strings.Contains(line, "server")
		if hasLogoChars && hasInfoText {
			foundTwoColumn = true
			break
		}
	}

	assert.True(t, foundTwoColumn, "should have two-column layout with logo and info on same line")
}

func TestGetTipOfTheDay(t *testing.T) {
	tip := getTipOfTheDay()
	assert.NotEmpty(t, tip)
	assert.Contains(t, tips, tip)
}
