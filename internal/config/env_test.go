package config

import (
	"os"
	"testing"
)

func TestLoadEnvFilesLayering(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	env := "SOFTICE_ENVTEST_BASE=from-env\n" +
		"SOFTICE_ENVTEST_SHARED=from-env\n" +
		"SOFTICE_ENVTEST_PROC=from-env\n"
	local := "SOFTICE_ENVTEST_LOCAL=from-local\n" +
		"SOFTICE_ENVTEST_SHARED=from-local\n"
	if err := os.WriteFile(".env", []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".env.local", []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SOFTICE_ENVTEST_PROC", "from-process")
	for _, key := range []string{"SOFTICE_ENVTEST_BASE", "SOFTICE_ENVTEST_SHARED", "SOFTICE_ENVTEST_LOCAL"} {
		defer os.Unsetenv(key)
	}

	loadEnvFiles()

	if got := os.Getenv("SOFTICE_ENVTEST_BASE"); got != "from-env" {
		t.Errorf(".env not loaded alongside .env.local: got %q", got)
	}
	if got := os.Getenv("SOFTICE_ENVTEST_LOCAL"); got != "from-local" {
		t.Errorf(".env.local not loaded: got %q", got)
	}
	if got := os.Getenv("SOFTICE_ENVTEST_SHARED"); got != "from-local" {
		t.Errorf(".env.local should take precedence over .env: got %q", got)
	}
	if got := os.Getenv("SOFTICE_ENVTEST_PROC"); got != "from-process" {
		t.Errorf("process environment must not be overridden: got %q", got)
	}
}

func TestLoadEnvFilesMissingFilesAreFine(t *testing.T) {
	t.Chdir(t.TempDir())
	loadEnvFiles()
}
