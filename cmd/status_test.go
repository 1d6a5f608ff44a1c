package cmd

import (
	"reflect"
	"testing"

	"rtgrab/internal/rtorrent"
)

func TestSummarizeJobs(t *testing.T) {
	tests := []struct {
		name     string
		jobs     []rtorrent.Job
		wantRows [][]string
		wantRate string
	}{
		{
			name:     "no jobs",
			wantRows: [][]string{{"ACTIVE", "0"}, {"PAUSED", "0"}, {"STOPPED", "0"}, {"HASH_CHECKING", "0"}},
			wantRate: "down 0 B/s, up 0 B/s",
		},
		{
			name: "mixed states",
			jobs: []rtorrent.Job{
				{Hash: "A", Active: true, Open: true, DownRate: 1024, UpRate: 512},
				{Hash: "B", Active: true, Open: true, DownRate: 1024},
				{Hash: "C", Open: true},
				{Hash: "D"},
				{Hash: "E", HashChecking: true, UpRate: 512},
			},
			wantRows: [][]string{{"ACTIVE", "2"}, {"PAUSED", "1"}, {"STOPPED", "1"}, {"HASH_CHECKING", "1"}},
			wantRate: "down 2.0 KiB/s, up 1.0 KiB/s",
		},
		{
			name:     "negative rates clamp",
			jobs:     []rtorrent.Job{{Hash: "A", DownRate: -5, UpRate: -1}},
			wantRows: [][]string{{"ACTIVE", "0"}, {"PAUSED", "0"}, {"STOPPED", "1"}, {"HASH_CHECKING", "0"}},
			wantRate: "down 0 B/s, up 0 B/s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := summarizeJobs(tt.jobs)
			if got := s.rows(); !reflect.DeepEqual(got, tt.wantRows) {
				t.Fatalf("rows = %v, want %v", got, tt.wantRows)
			}
			if got := s.rateLine(); got != tt.wantRate {
				t.Fatalf("rateLine = %q, want %q", got, tt.wantRate)
			}
		})
	}
}

func TestJobListRows(t *testing.T) {
	jobs := []rtorrent.Job{
		{
			Hash:      "0123456789ABCDEF",
			Name:      "paused job",
			SizeBytes: 1 << 20,
			Open:      true,
			DownRate:  2048,
			UpRate:    512,
			Label:     "books",
		},
		{Hash: "AB", Name: "short"},
	}

	rows := jobListRows(jobs)
	want := [][]string{
		{"01234567", "paused job", "PAUSED", "1.0 MiB", "2.0 KiB/s", "512 B/s", "books"},
		{"AB", "short", "STOPPED", "0 B", "0 B/s", "0 B/s", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows mismatch\n got: %v\nwant: %v", rows, want)
	}
	if len(rows[0]) != len(jobListHeaders) || len(jobListAligns) != len(jobListHeaders) {
		t.Fatalf("row width %d does not match %d headers", len(rows[0]), len(jobListHeaders))
	}
}
