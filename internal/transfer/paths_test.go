package transfer

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestBlobName(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"posix path", "services/api/main.ts", "services/api/main.ts"},
		{"windows separators", `dump\2024\db.sql`, "dump/2024/db.sql"},
		{"mixed separators", `services\api/main.ts`, "services/api/main.ts"},
		{"bare file", ".env", ".env"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BlobName(tc.input); got != tc.expected {
				t.Errorf("BlobName(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCleanItem(t *testing.T) {
	testCases := map[string]string{
		"dump/":        "dump",
		"dump///":      "dump",
		"gcp-key.json": "gcp-key.json",
		"/":            "",
	}
	for input, want := range testCases {
		if got := CleanItem(input); got != want {
			t.Errorf("CleanItem(%q) = %q; want %q", input, got, want)
		}
	}
}

func TestDefaultDownloadPath(t *testing.T) {
	got := DefaultDownloadPath(filepath.Join("tmp", "download"), "x/y.json")
	if want := filepath.Join("tmp", "download", "y.json"); got != want {
		t.Fatalf("DefaultDownloadPath() = %q; want %q", got, want)
	}
}

func TestLocalPath(t *testing.T) {
	dest := filepath.Join("restore", "root")

	got, err := LocalPath(dest, "services/api.ts")
	if err != nil {
		t.Fatalf("LocalPath() error = %v", err)
	}
	if want := filepath.Join(dest, "services", "api.ts"); got != want {
		t.Fatalf("LocalPath() = %q; want %q", got, want)
	}

	// Absolute keys stay below the destination.
	got, err = LocalPath(dest, "/etc/passwd")
	if err != nil {
		t.Fatalf("LocalPath() error = %v", err)
	}
	if want := filepath.Join(dest, "etc", "passwd"); got != want {
		t.Fatalf("LocalPath() = %q; want %q", got, want)
	}

	for _, key := range []string{"../outside.txt", "a/../../outside.txt", ".", "a/.."} {
		if _, err := LocalPath(dest, key); !errors.Is(err, ErrPathEscapesDestination) {
			t.Errorf("LocalPath(%q) error = %v; want ErrPathEscapesDestination", key, err)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{Success: "success", Skipped: "skipped", Failed: "failed", Outcome(42): "unknown"} {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q; want %q", o, got, want)
		}
	}
}

func TestReportCounts(t *testing.T) {
	r := Report{}
	r.Add(Result{Outcome: Success, Bytes: 10})
	r.Add(Result{Outcome: Success, Bytes: 5})
	r.Add(Result{Outcome: Skipped})
	r.Add(Result{Outcome: Failed, Bytes: 3})

	if r.Succeeded() != 2 || r.Skipped() != 1 || r.Failed() != 1 {
		t.Fatalf("unexpected counts: %d/%d/%d", r.Succeeded(), r.Skipped(), r.Failed())
	}
	if r.Bytes() != 15 {
		t.Fatalf("Bytes() = %d; want 15", r.Bytes())
	}
	if r.OK() {
		t.Fatal("report with a failure must not be OK")
	}

	clean := Report{Results: []Result{{Outcome: Skipped}}}
	if !clean.OK() {
		t.Fatal("skips alone must not fail a report")
	}
	clean.Err = errors.New("aborted")
	if clean.OK() {
		t.Fatal("aborted report must not be OK")
	}
}
