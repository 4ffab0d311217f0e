package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/hackhub/internal/app/system/htmlsanitize"
)

func TestStrip_Empty(t *testing.T) {
	if got := htmlsanitize.Strip(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestStrip_PlainText(t *testing.T) {
	if got := htmlsanitize.Strip("Team Rocket"); got != "Team Rocket" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestStrip_RemovesTags(t *testing.T) {
	got := htmlsanitize.Strip("<b>Team</b> <i>Rocket</i>")
	if got != "Team Rocket" {
		t.Errorf("expected tags removed, got %q", got)
	}
}

func TestStrip_RemovesScript(t *testing.T) {
	got := htmlsanitize.Strip("Hello<script>alert('xss')</script>")
	if strings.Contains(got, "alert") {
		t.Errorf("expected script contents removed, got %q", got)
	}
	if !strings.Contains(got, "Hello") {
		t.Errorf("expected safe text preserved, got %q", got)
	}
}

func TestStrip_RemovesAttributes(t *testing.T) {
	got := htmlsanitize.Strip(`<span onclick="alert('xss')">notes</span>`)
	if got != "notes" {
		t.Errorf("expected attributes and tags removed, got %q", got)
	}
}

func TestStrip_TrimsWhitespace(t *testing.T) {
	if got := htmlsanitize.Strip("  padded  "); got != "padded" {
		t.Errorf("expected trimmed, got %q", got)
	}
}

func TestIsPlainText_NoTags(t *testing.T) {
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
}

func TestIsPlainText_WithTags(t *testing.T) {
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}

func TestIsPlainText_BareComparisons(t *testing.T) {
	if !htmlsanitize.IsPlainText("5 < 10") {
		t.Error("expected string with only < to be plain text")
	}
	if !htmlsanitize.IsPlainText("5 > 3") {
		t.Error("expected string with only > to be plain text")
	}
}
