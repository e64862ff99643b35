package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stolenpainting/internal/observability"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	got, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	want := Config{
		Model:         "gpt-4o-mini",
		ChatTimeout:   30 * time.Second,
		DebugLogPath:  "debug.log",
		CompletionsDB: "./completions.db",
		Tracing: observability.Config{
			ServiceName:    "stolen-painting",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			LangfuseHost:   "https://cloud.langfuse.com",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromEnv() mismatch (-want +got):\n%s", diff)
	}
	if got.HasAPIKey() {
		t.Error("HasAPIKey() with no key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	got, err := FromEnv(env(map[string]string{
		"OPENAI_API_KEY":      " sk-test ",
		"OPENAI_MODEL":        "gpt-4o",
		"CHAT_TIMEOUT":        "5s",
		"DEBUG":               "TRUE",
		"COMPLETIONS_DB":      "/tmp/c.db",
		"OTEL_TRACES_ENABLED": "true",
		"LANGFUSE_PUBLIC_KEY": "pk",
		"LANGFUSE_SECRET_KEY": "sk",
		"ENVIRONMENT":         "ci",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if got.OpenAIAPIKey != "sk-test" || !got.HasAPIKey() {
		t.Errorf("api key = %q", got.OpenAIAPIKey)
	}
	if got.Model != "gpt-4o" || got.ChatTimeout != 5*time.Second || !got.Debug || got.CompletionsDB != "/tmp/c.db" {
		t.Errorf("config = %+v", got)
	}
	if !got.Tracing.Enabled || got.Tracing.Environment != "ci" || got.Tracing.PublicKey != "pk" {
		t.Errorf("tracing = %+v", got.Tracing)
	}
}

func TestFromEnvRejectsBadTimeout(t *testing.T) {
	for _, v := range []string{"soon", "-1s", "0s"} {
		if _, err := FromEnv(env(map[string]string{"CHAT_TIMEOUT": v})); err == nil {
			t.Errorf("CHAT_TIMEOUT=%q accepted", v)
		}
	}
}
