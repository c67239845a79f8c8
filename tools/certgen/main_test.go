package main

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestRun_WritesLoadablePair(t *testing.T) {
	dir := t.TempDir()

	if err := run([]string{"-out", dir, "-hosts", "bike.local, 10.0.0.5", "-days", "30"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	cert, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	if err != nil {
		t.Fatalf("load pair: %v", err)
	}
	if cert.Leaf == nil {
		t.Skip("leaf not parsed by this Go version")
	}
	if len(cert.Leaf.DNSNames) != 1 || cert.Leaf.DNSNames[0] != "bike.local" {
		t.Errorf("DNSNames = %v", cert.Leaf.DNSNames)
	}
	if len(cert.Leaf.IPAddresses) != 1 || cert.Leaf.IPAddresses[0].String() != "10.0.0.5" {
		t.Errorf("IPAddresses = %v", cert.Leaf.IPAddresses)
	}
}

func TestRun_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "negative days", args: []string{"-out", t.TempDir(), "-days", "-1"}},
		{name: "no hosts", args: []string{"-out", t.TempDir(), "-hosts", " , "}},
		{name: "unknown flag", args: []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
