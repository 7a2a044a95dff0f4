package querier

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/quietwire/flare/internal/protocol"
	"github.com/quietwire/flare/internal/transport"
)

func TestDiscoveryAddServiceInfoAdvertisesAndPeerResolves(t *testing.T) {
	ether := transport.NewEther()
	advSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	browseSock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.2"), Port: protocol.Port})

	advCfg := defaultConfig()
	advCfg.disableSecurity = true
	adv := newWithSocket(advSock, advCfg)

	browseCfg := defaultConfig()
	browseCfg.disableSecurity = true
	browser := newWithSocket(browseSock, browseCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	browser.Start(ctx)
	if err := browser.Browse("_svc._tcp.local", 10*time.Millisecond); err != nil {
		t.Fatalf("Browse: %v", err)
	}

	info := ServiceInfo{InstanceName: "Printer", ServiceType: "_svc._tcp.local", Hostname: "printer-host.local", Port: 515}
	advertiseCtx, advertiseCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer advertiseCancel()
	final, err := adv.AddServiceInfo(advertiseCtx, info)
	if err != nil {
		t.Fatalf("AddServiceInfo: %v", err)
	}
	if final.InstanceName != "Printer" {
		t.Fatalf("InstanceName = %q, want unchanged %q", final.InstanceName, "Printer")
	}

	deadline := time.Now().Add(3 * time.Second)
	var peers []InstanceInfo
	for time.Now().Before(deadline) {
		peers = browser.GetKnownServices()
		if len(peers) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(peers) != 1 || peers[0].InstanceName != "Printer" {
		t.Fatalf("GetKnownServices() = %+v, want one Printer instance", peers)
	}

	adv.RemoveServiceType("Printer", "_svc._tcp.local")
	if err := browser.Close(); err != nil {
		t.Fatalf("browser.Close: %v", err)
	}
	if err := adv.Close(); err != nil {
		t.Fatalf("adv.Close: %v", err)
	}
}

func TestDiscoveryResolveReturnsFalseOnTimeoutNotError(t *testing.T) {
	ether := transport.NewEther()
	sock := transport.NewMock(ether, &net.UDPAddr{IP: net.ParseIP("10.0.0.1"), Port: protocol.Port})
	cfg := defaultConfig()
	cfg.disableSecurity = true
	d := newWithSocket(sock, cfg)
	d.Start(context.Background())
	defer d.Close()

	info, ok, err := d.Resolve(context.Background(), "_nobody._tcp.local", 60*time.Millisecond)
	if err != nil {
		t.Fatalf("Resolve returned an error, want nil: %v", err)
	}
	if ok {
		t.Fatalf("Resolve ok=true with no peers present: %+v", info)
	}
}
