package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newStockServer serves a search endpoint answering with searchBody(base URL)
// and a download endpoint under /files/ returning payload.
func newStockServer(t *testing.T, searchBody func(base string) string, payload string) (*httptest.Server, *int32) {
	t.Helper()
	var downloads int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/videos/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("per_page") != "1" {
			http.Error(w, "bad per_page", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody(srv.URL))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downloads, 1)
		fmt.Fprint(w, payload+":"+strings.TrimPrefix(r.URL.Path, "/files/"))
	})
	return srv, &downloads
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestSelectFile(t *testing.T) {
	v := Video{Files: []VideoFile{
		{Quality: "sd", Link: "sd"},
		{Quality: "hd", Link: "hd-1"},
		{Quality: "hd", Link: "hd-2"},
	}}
	if f, _ := SelectFile(v, "hd"); f.Link != "hd-1" {
		t.Errorf("Expected first hd file, got %s", f.Link)
	}
	if f, _ := SelectFile(v, "uhd"); f.Link != "sd" {
		t.Errorf("Expected first file as fallback, got %s", f.Link)
	}
	if _, ok := SelectFile(Video{}, "hd"); ok {
		t.Error("Expected no file for an empty video")
	}
}

func TestFetchDownloadsHD(t *testing.T) {
	srv, downloads := newStockServer(t, func(base string) string {
		return fmt.Sprintf(`{"total_results":1,"videos":[{"id":7,"video_files":[
			{"quality":"sd","link":"%[1]s/files/sd","width":640,"height":360},
			{"quality":"hd","link":"%[1]s/files/hd","width":1920,"height":1080}]}]}`, base)
	}, "mp4")

	dir := t.TempDir()
	f := New(NewClient(srv.URL, "test-key", 1, "", 5*time.Second), dir, "hd")

	path, err := f.Fetch(context.Background(), "frustrated person computer", "frustrated_person.mp4")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "mp4:hd" {
		t.Errorf("Expected the hd rendition, got %q", data)
	}

	// second call is served from disk
	if _, err := f.Fetch(context.Background(), "frustrated person computer", "frustrated_person.mp4"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(downloads); n != 1 {
		t.Errorf("Expected 1 download, got %d", n)
	}
}

func TestFetchNoResults(t *testing.T) {
	logs := captureLog(t)
	srv, _ := newStockServer(t, func(string) string { return `{"total_results":0,"videos":[]}` }, "")

	dir := t.TempDir()
	f := New(NewClient(srv.URL, "test-key", 1, "", 5*time.Second), dir, "hd")

	_, err := f.Fetch(context.Background(), "unicorn robot sadness", "missing.mp4")
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("Expected ErrNoResults, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.mp4")); !os.IsNotExist(statErr) {
		t.Error("Target file must stay absent")
	}
	if !strings.Contains(logs.String(), "No videos found") {
		t.Errorf("Expected a 'No videos found' log line, got %q", logs.String())
	}
}

func TestFetchSearchStatus(t *testing.T) {
	srv, _ := newStockServer(t, func(string) string { return `{}` }, "")
	f := New(NewClient(srv.URL, "wrong-key", 1, "portrait", 5*time.Second), t.TempDir(), "hd")

	_, err := f.Fetch(context.Background(), "robot", "robot.mp4")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if se.Status != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", se.Status)
	}
}

func TestFetchDownloadFailureLeavesNoFile(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/videos/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"videos":[{"id":1,"video_files":[{"quality":"hd","link":"%s/gone"}]}]}`, srv.URL)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	dir := t.TempDir()
	f := New(NewClient(srv.URL, "k", 1, "", 5*time.Second), dir, "hd")
	if _, err := f.Fetch(context.Background(), "robot", "robot.mp4"); err == nil {
		t.Fatal("Expected a download error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no files after a failed download, found %d", len(entries))
	}
}

func TestFetchAllContinuesAfterFailure(t *testing.T) {
	captureLog(t)
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/videos/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "nothing" {
			fmt.Fprint(w, `{"videos":[]}`)
			return
		}
		fmt.Fprintf(w, `{"videos":[{"id":1,"video_files":[{"quality":"hd","link":"%s/clip"}]}]}`, srv.URL)
	})
	mux.HandleFunc("/clip", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data")
	})

	dir := t.TempDir()
	f := New(NewClient(srv.URL, "k", 1, "", 5*time.Second), dir, "hd")
	failed := f.FetchAll(context.Background(), []Job{
		{Query: "nothing", Filename: "a.mp4"},
		{Query: "robot", Filename: "b.mp4"},
	})

	if len(failed) != 1 || !errors.Is(failed["a.mp4"], ErrNoResults) {
		t.Errorf("Expected only a.mp4 to fail, got %v", failed)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.mp4")); err != nil {
		t.Errorf("Expected b.mp4 to be downloaded: %v", err)
	}
}
