package commsutil

import (
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-comms-server", "test-client")
	if err == nil {
		nc.Close()
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.URL == "" || o.Name != "webview-bridge" || o.Timeout != 10*time.Second || o.MaxReconnects != 60 {
		t.Errorf("%s - defaults = %+v", connectTestPrefix, o)
	}
	if o := (Options{MaxReconnects: -1}).withDefaults(); o.MaxReconnects != -1 {
		t.Errorf("%s - MaxReconnects -1 should be kept, got %d", connectTestPrefix, o.MaxReconnects)
	}
}

func TestConnectWith_EmbeddedServer(t *testing.T) {
	ns, err := commsserver.NewServer(&commsserver.Options{Host: "127.0.0.1", Port: 14370, NoLog: true, NoSigs: true})
	if err != nil {
		t.Fatalf("%s - failed to create COMMS server: %v", connectTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - COMMS server failed to start", connectTestPrefix)
	}
	defer ns.Shutdown()

	nc, err := ConnectWith(Options{URL: ns.ClientURL(), Name: "bridge-test", Timeout: time.Second})
	if err != nil {
		t.Fatalf("%s - ConnectWith: %v", connectTestPrefix, err)
	}
	defer nc.Close()
	if !nc.IsConnected() {
		t.Errorf("%s - connection not established", connectTestPrefix)
	}
	if nc.Opts.Name != "bridge-test" {
		t.Errorf("%s - client name = %q, want bridge-test", connectTestPrefix, nc.Opts.Name)
	}
}
