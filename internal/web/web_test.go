package web

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/models"
	th "github.com/desertthunder/karaoke/internal/testing"
)

func TestRender(t *testing.T) {
	info := &models.SessionInfo{Name: "Friday <Night>"}
	report := formatter.NewReport(info, th.SampleSnapshot(), th.Epoch.Add(time.Hour))

	t.Run("full board", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Render(&buf, Page{Report: report, Refresh: "/api/events"}); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Friday &lt;Night&gt;",
			"Bo &middot; Africa",
			"[&#43;2]",
			"Cy &amp; Amy &middot; Shallow",
			"~8m",
			"1st Amy",
			"Average rating 4.2",
			"EventSource",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("board missing %q", want)
			}
		}
	})

	t.Run("empty session", func(t *testing.T) {
		var buf bytes.Buffer
		empty := formatter.NewReport(nil, &models.Snapshot{}, th.Epoch)
		if err := Render(&buf, Page{Report: empty}); err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "The queue is empty") {
			t.Error("expected the empty queue message")
		}
		if !strings.Contains(output, "<title>Karaoke</title>") {
			t.Error("expected the generic title")
		}
		if strings.Contains(output, "EventSource") {
			t.Error("live reload should be off without a stream URL")
		}
	})
}
