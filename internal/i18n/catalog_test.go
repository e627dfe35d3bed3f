package i18n

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Fallback() != "en" {
		t.Fatalf("fallback = %q, want en", c.Fallback())
	}
	if len(c.Locales()) != 3 {
		t.Fatalf("locales = %d, want 3", len(c.Locales()))
	}
	for _, l := range c.Locales() {
		for _, key := range []string{"title", "generate", "list_failed", "missing_files", "not_ready"} {
			if l.T(key) == key {
				t.Fatalf("locale %q lacks label %q", l.Code, key)
			}
		}
		if len(l.Options.Voices) == 0 || len(l.Options.SyncModes) == 0 {
			t.Fatalf("locale %q lacks option sets", l.Code)
		}
	}
	zh := c.Get("ZH")
	if zh.Code != "zh" || len(zh.Options.SyncModes) != 4 {
		t.Fatalf("zh locale = %+v", zh)
	}
	if c.Get("klingon").Code != "en" {
		t.Fatalf("unknown code must fall back to en")
	}
}

func TestMatch(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	tests := []struct {
		accept string
		want   string
		ok     bool
	}{
		{accept: "zh-CN,zh;q=0.9,en;q=0.8", want: "zh", ok: true},
		{accept: "zh-TW", want: "zh", ok: true},
		{accept: "en-US,en;q=0.9", want: "en", ok: true},
		{accept: "de-DE", ok: false},
		{accept: "", ok: false},
		{accept: "bilingual", ok: false},
	}
	for _, tc := range tests {
		got, ok := c.Match(tc.accept)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("Match(%q) = %q, %v; want %q, %v", tc.accept, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLabels(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	en, zh := c.Get("en"), c.Get("zh")
	if got := en.OptionLabel("narration"); got != "Narration" {
		t.Fatalf("en OptionLabel = %q", got)
	}
	if got := zh.OptionLabel("narration"); got != "旁白" {
		t.Fatalf("zh OptionLabel = %q", got)
	}
	if got := en.LanguageLabel("de"); got != "German" {
		t.Fatalf("en LanguageLabel(de) = %q", got)
	}
	if got := en.T("no-such-key"); got != "no-such-key" {
		t.Fatalf("missing key must echo, got %q", got)
	}
}

func TestParseRejectsBrokenTables(t *testing.T) {
	tests := map[string]string{
		"empty":        "locales: []",
		"missing code": "locales:\n  - name: x\n",
		"duplicate":    "locales:\n  - code: en\n  - code: EN\n",
		"bad tag":      "locales:\n  - code: en\n    tags: ['not a tag!']\n",
		"not yaml":     "locales: [",
	}
	for name, data := range tests {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSetFallback(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.SetFallback("klingon") {
		t.Fatalf("unknown locale accepted as fallback")
	}
	if c.Fallback() != "en" {
		t.Fatalf("fallback changed to %q", c.Fallback())
	}
	if !c.SetFallback(" ZH ") || c.Get("nope").Code != "zh" {
		t.Fatalf("fallback not applied")
	}
}
