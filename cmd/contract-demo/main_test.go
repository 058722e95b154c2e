package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"AssetGrid-Chain/internal/contracts"
)

func TestRunPrintsDeploymentAndTransaction(t *testing.T) {
	var out bytes.Buffer
	run(context.Background(), &out, contracts.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	want := "✅ Contract deployed at: 0xCONTRACT_1\n" +
		"✅ Transaction hash: 0x" + strings.Repeat("a", 64) + "\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out.String(), want)
	}
}
