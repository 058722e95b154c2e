package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"AssetGrid-Chain/internal/defi"
)

func TestRunPrintsPerformanceSummary(t *testing.T) {
	var out bytes.Buffer
	run(context.Background(), &out, defi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	want := "\n📊 Performance Metrics:\n" +
		"Total Yield Generated: $3,500.00\n" +
		"Average APY: 15.5%\n" +
		"Revenue Potential: $4M+ annually\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out.String(), want)
	}
}
