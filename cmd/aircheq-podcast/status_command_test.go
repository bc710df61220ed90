package main

import "testing"

func TestStatusCommandReportsHealth(t *testing.T) {
	env := setupCLITestEnv(t)
	seedRecordings(t, env.cfg.Paths.CrawlDir)
	if _, _, err := runCLI(t, []string{"run"}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "[OK] "+env.configPath)
	requireContains(t, out, "Run lock:")
	requireContains(t, out, "[INFO] idle")
	requireContains(t, out, "[OK] 2 items")
	requireContains(t, out, "feed matches publish directory")
	requireContains(t, out, "Notifications:")
}

func TestStatusCommandBeforeFirstRun(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not written yet")
}
