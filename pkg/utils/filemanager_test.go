package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("report_{input}_{uuid}", ".txt", map[string]string{
		"input": "sales",
		"uuid":  "1234",
	})
	if name != "report_sales_1234.txt" {
		t.Errorf("name = %s", name)
	}

	if name := GenerateOutputFileName("summary.TXT", ".txt", nil); name != "summary.TXT" {
		t.Errorf("extension added twice: %s", name)
	}

	random := GenerateOutputFileName("{uuid}", ".xlsx", nil)
	if len(random) != 36+len(".xlsx") {
		t.Errorf("uuid placeholder not expanded: %s", random)
	}

	if name := GenerateOutputFileName("r_{date}", "", nil); strings.Contains(name, "{") || len(name) != len("r_20240101") {
		t.Errorf("date placeholder = %s", name)
	}
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "x")
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	writeFile(t, filepath.Join(dir, "notes.md"), "x")
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := DiscoverInputFiles(dir, "*.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.txt" || filepath.Base(files[1]) != "b.txt" {
		t.Errorf("files = %v", files)
	}

	single, err := DiscoverInputFiles(filepath.Join(dir, "notes.md"), "*.txt")
	if err != nil || len(single) != 1 {
		t.Errorf("single file = %v, %v", single, err)
	}

	if _, err := DiscoverInputFiles(dir, "*.csv"); err == nil {
		t.Errorf("expected an error when nothing matches")
	}
	if _, err := DiscoverInputFiles(filepath.Join(dir, "missing"), ""); err == nil {
		t.Errorf("expected an error for a missing path")
	}
}

func TestArchiveFile(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "out", "sales_report.txt")
	writeFile(t, report, "report body")

	disabled := NewFileManager(filepath.Join(dir, "out"), "")
	if path, err := disabled.ArchiveFile(report); err != nil || path != "" {
		t.Errorf("disabled archive = %q, %v", path, err)
	}

	fm := NewFileManager(filepath.Join(dir, "out"), filepath.Join(dir, "archive"))
	fm.UseTimestampSubdirs = true

	archived, err := fm.ArchiveFile(report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(archived)
	if err != nil || string(data) != "report body" {
		t.Errorf("archived copy = %q, %v", data, err)
	}
	if !FileExists(report) {
		t.Errorf("original was removed")
	}
	if !strings.Contains(archived, time.Now().Format("2006")) {
		t.Errorf("archive path has no date subdirectory: %s", archived)
	}
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "old.txt")
	newFile := filepath.Join(dir, "new.txt")
	writeFile(t, oldFile, "x")
	writeFile(t, newFile, "x")
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatal(err)
	}

	fm := NewFileManager("", dir)
	removed, err := fm.CleanOldArchives(24 * time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 || FileExists(oldFile) || !FileExists(newFile) {
		t.Errorf("removed = %d, old exists = %v, new exists = %v", removed, FileExists(oldFile), FileExists(newFile))
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(filepath.Join(dir, "out"), filepath.Join(dir, "archive"))

	if err := fm.EnsureDirectories(filepath.Join(dir, "data", "enriched.txt"), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sub := range []string{"out", "archive", "data"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("%s not created", sub)
		}
	}
}

func TestWriteRejectionLog(t *testing.T) {
	dir := t.TempDir()

	if path, err := WriteRejectionLog(nil, dir, "abc"); err != nil || path != "" {
		t.Errorf("empty log = %q, %v", path, err)
	}

	entries := []RejectionLogEntry{
		{FileName: "sales.txt", Reason: "malformed_row", LineNumber: 4, Message: "expected 8 fields, got 7"},
		{FileName: "sales.txt", Reason: "invalid_format", LineNumber: 9, TransactionID: "X9", FieldName: "TransactionID", FieldValue: "X9"},
	}
	path, err := WriteRejectionLog(entries, dir, "0f8fad5b-d9cb-469f-a165-70867728950e")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(filepath.Base(path), "0f8fad5b") {
		t.Errorf("log name = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"Total Rejections: 2", "Rejection #2", "Line Number:    4", "Transaction ID: X9", "expected 8 fields"} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q", want)
		}
	}
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		RunID:           "run-1",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		SuccessfulFiles: 1,
		FailedFiles:     1,
		TotalRecords:    10,
		AcceptedRecords: 8,
		RejectedRecords: 2,
		ProcessedFiles:  []ProcessedFileInfo{{InputFile: "a.txt", ReportFile: "out/a.txt", Records: 10, Accepted: 8}},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.txt", ErrorMessage: "unreadable"}},
	}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "processing_summary_20240115_143002_run.txt" {
		t.Errorf("summary name = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Duration:       2s", "Accepted Records:   8", "Error: unreadable"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
