package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/interceptor/internal/engine"
	"github.com/TimurManjosov/interceptor/internal/rules"
	"github.com/TimurManjosov/interceptor/internal/store"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg", "config.yaml")
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvAPIKey, "")
	return path
}

func TestLoadConfig_MissingFileGivesEmptyConfig(t *testing.T) {
	useTempConfig(t)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.DefaultProfile != "local" || len(cfg.Profiles) != 0 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestInitConfig_RoundTrip(t *testing.T) {
	useTempConfig(t)
	if err := InitConfig(); err != nil {
		t.Fatalf("InitConfig() failed: %v", err)
	}

	p, name, err := GetProfile("", "", "")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if name != "local" || p.BaseURL != "http://localhost:8080" {
		t.Errorf("unexpected profile %s %+v", name, p)
	}
}

func TestGetProfile_Priority(t *testing.T) {
	useTempConfig(t)
	if err := SaveConfig(&Config{
		DefaultProfile: "a",
		Profiles: map[string]Profile{
			"a": {BaseURL: "http://a", APIKey: "ka"},
			"b": {BaseURL: "http://b"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	p, _, err := GetProfile("a", "http://flag", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.BaseURL != "http://flag" || p.APIKey != "ka" {
		t.Errorf("flag should override base url only, got %+v", p)
	}

	t.Setenv(EnvAPIKey, "env-key")
	p, _, err = GetProfile("a", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.APIKey != "env-key" {
		t.Errorf("env should override api key, got %+v", p)
	}

	t.Setenv(EnvAPIKey, "")
	if _, _, err := GetProfile("b", "", ""); err == nil {
		t.Error("expected error for profile without api key")
	}
	if _, _, err := GetProfile("zzz", "", ""); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestGetProfile_FlagsWithoutFile(t *testing.T) {
	useTempConfig(t)
	p, name, err := GetProfile("", "http://x", "k")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if name != "adhoc" || p.BaseURL != "http://x" || p.APIKey != "k" {
		t.Errorf("unexpected profile %s %+v", name, p)
	}
}

func sampleRuleSets() []store.RuleSet {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []store.RuleSet{
		{ID: 1, Name: "spam", Mode: rules.ModeBlacklist, Enabled: true, UpdatedAt: ts,
			Rule: rules.Rule{{Type: rules.TypeMessage, Compare: rules.CompareIn, Target: "buy"}}},
		{ID: 2, Name: "open", Mode: rules.ModeWhitelist, Enabled: false, UpdatedAt: ts, Rule: rules.Rule{}},
	}
}

func TestPrintRuleSets_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintRuleSets(&buf, sampleRuleSets(), FormatTable); err != nil {
		t.Fatalf("PrintRuleSets() failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"spam", "blacklist", "message in buy", "none", "2024-05-01 12:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRuleSets_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintRuleSets(&buf, sampleRuleSets(), FormatJSON); err != nil {
		t.Fatalf("PrintRuleSets() failed: %v", err)
	}
	var decoded struct {
		RuleSets []store.RuleSet `json:"ruleSets"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.RuleSets) != 2 || decoded.RuleSets[0].Name != "spam" {
		t.Errorf("unexpected JSON output %s", buf.String())
	}
}

func TestPrintRuleSet_YAML(t *testing.T) {
	sets := sampleRuleSets()
	var buf bytes.Buffer
	if err := PrintRuleSet(&buf, &sets[0], FormatYAML); err != nil {
		t.Fatalf("PrintRuleSet() failed: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["name"] != "spam" || decoded["mode"] != "blacklist" {
		t.Errorf("unexpected YAML output %s", buf.String())
	}
}

func TestPrintDecision(t *testing.T) {
	res := engine.Result{Allowed: false, Reason: engine.ReasonBlacklistMatch, RuleSetID: 4}

	var buf bytes.Buffer
	if err := PrintDecision(&buf, res, FormatTable); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "deny") || !strings.Contains(buf.String(), "BLACKLIST_MATCH") {
		t.Errorf("unexpected table %s", buf.String())
	}

	buf.Reset()
	if err := PrintDecision(&buf, res, FormatJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"ruleSetId": 4`) {
		t.Errorf("unexpected JSON %s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"table", "json", "yaml"} {
		if _, err := ParseFormat(ok); err != nil {
			t.Errorf("ParseFormat(%q) = %v", ok, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
	if err := PrintRuleSets(&bytes.Buffer{}, nil, OutputFormat("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}
