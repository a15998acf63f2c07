package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"apeBeacon/domain"
	"apeBeacon/pkg/utils"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs(args)
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestCustomerCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ape.db")

	out := execute(t, "--driver", "sqlite", "--db", db,
		"customer", "create", "--id", "123456", "--name", "Bar Ltd", "--site", "https://bar.com,//shop.bar.com")
	var created domain.Customer
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode create output %q: %v", out, err)
	}
	if created.ID != "123456" || len(created.Sites) != 2 {
		t.Errorf("unexpected customer %+v", created)
	}

	execute(t, "--driver", "sqlite", "--db", db, "site", "add", "--id", "123456", "--domain", "http://blog.bar.com")
	execute(t, "--driver", "sqlite", "--db", db, "content", "add", "--id", "123456", "--slot", "hero", "--body", "<b>hi</b>")

	out = execute(t, "--driver", "sqlite", "--db", db, "customer", "get", "--id", "123456")
	var got domain.Customer
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode get output: %v", err)
	}
	domains := got.Domains()
	if len(domains) != 3 || domains[2] != "blog.bar.com" {
		t.Errorf("unexpected sites %v", domains)
	}
}

func TestHashPassword(t *testing.T) {
	out := strings.TrimSpace(execute(t, "hash-password", "hunter2"))
	if !utils.CheckPassword("hunter2", out) {
		t.Errorf("printed hash %q does not verify", out)
	}
}
