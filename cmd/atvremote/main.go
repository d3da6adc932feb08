// atvremote is a command-line MRP remote for Apple TV and HomePod
// endpoints: it discovers a device, pairs with it on first use (persisting
// the resulting credentials), then sends a single key press or prints
// now-playing updates until interrupted.
//
// Usage:
//
//	atvremote [options] <key>
//
// Options:
//
//	-addr       host:port of the device (skips discovery)
//	-name       mDNS instance name to look up (used with discovery)
//	-creds-dir  directory for persisted pairing credentials (default: ~/.atvremote)
//	-watch      instead of sending a key, print now-playing updates until interrupted
//
// Example:
//
//	atvremote -addr 192.168.1.20:7000 menu
//	atvremote -name "Living Room" -watch
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atvremote/mrp/pkg/codec"
	"github.com/atvremote/mrp/pkg/credentials"
	"github.com/atvremote/mrp/pkg/device"
	"github.com/atvremote/mrp/pkg/discovery"
)

// options holds the CLI flags for the atvremote binary.
type options struct {
	addr     string
	name     string
	credsDir string
	watch    bool
}

func parseFlags() (options, string) {
	var opts options
	flag.StringVar(&opts.addr, "addr", "", "host:port of the device, skips discovery")
	flag.StringVar(&opts.name, "name", "", "mDNS instance name to discover")
	flag.StringVar(&opts.credsDir, "creds-dir", defaultCredsDir(), "directory for persisted pairing credentials")
	flag.BoolVar(&opts.watch, "watch", false, "print now-playing updates instead of sending a key")
	flag.Parse()

	return opts, flag.Arg(0)
}

func defaultCredsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atvremote"
	}
	return filepath.Join(home, ".atvremote")
}

func main() {
	opts, keyArg := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := opts.addr
	if addr == "" {
		var err error
		addr, err = resolveAddr(ctx, opts.name)
		if err != nil {
			log.Fatalf("discover device: %v", err)
		}
	}

	var key device.Key
	if !opts.watch {
		k, err := parseKey(keyArg)
		if err != nil {
			log.Fatal(err)
		}
		key = k
	}

	store := credentials.NewFileStore(opts.credsDir)
	dev, err := connect(ctx, addr, store)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer dev.Close()

	if opts.watch {
		watchNowPlaying(ctx, dev)
		return
	}

	if err := dev.SendKey(ctx, key); err != nil {
		log.Fatalf("send key: %v", err)
	}
	fmt.Printf("sent %s to %s\n", key, addr)
}

// resolveAddr browses for _mediaremotetv._tcp services and either looks up
// name directly or returns the first result discovered within the default
// timeout.
func resolveAddr(ctx context.Context, name string) (string, error) {
	resolver, err := discovery.NewResolver(discovery.ResolverConfig{})
	if err != nil {
		return "", fmt.Errorf("create resolver: %w", err)
	}

	if name != "" {
		svc, err := resolver.Lookup(ctx, discovery.ServiceTypeMediaRemote, name)
		if err != nil {
			return "", err
		}
		return serviceAddr(*svc)
	}

	browseCtx, cancel := context.WithTimeout(ctx, discovery.DefaultBrowseTimeout)
	defer cancel()

	results, err := resolver.BrowseMediaRemote(browseCtx)
	if err != nil {
		return "", err
	}
	svc, ok := <-results
	if !ok {
		return "", discovery.ErrServiceNotFound
	}
	return serviceAddr(svc)
}

func serviceAddr(svc discovery.ServiceDescriptor) (string, error) {
	ip, ok := discovery.PreferredAddress(svc)
	if !ok {
		return "", discovery.ErrServiceNotFound
	}
	return fmt.Sprintf("%s:%d", ip, svc.Port), nil
}

// connect opens a Device at addr, reusing credentials stored under addr
// when available and persisting freshly minted ones under addr after a
// successful pair-setup.
func connect(ctx context.Context, addr string, store *credentials.FileStore) (*device.Device, error) {
	opts := device.Options{
		OnError: func(err error) { log.Printf("transport error: %v", err) },
	}

	// Credentials are keyed by remote peer ID, which we only learn once
	// connected, so probe the store with the address as a stand-in key:
	// a fresh install has nothing saved under any key and always pairs.
	if creds, err := store.Load(addr); err == nil {
		dev, _, err := device.Open(ctx, addr, &creds, nil, opts)
		if err == nil {
			return dev, nil
		}
		log.Printf("stored credentials rejected, re-pairing: %v", err)
	}

	dev, creds, err := device.Open(ctx, addr, nil, promptPIN, opts)
	if err != nil {
		return nil, err
	}
	if err := store.Save(addr, creds); err != nil {
		log.Printf("save credentials: %v", err)
	}
	return dev, nil
}

func promptPIN(ctx context.Context) (string, error) {
	fmt.Print("Enter the PIN shown on the device: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func watchNowPlaying(ctx context.Context, dev *device.Device) {
	unsubscribe := dev.SubscribeNowPlaying(func(info *codec.NowPlayingInfo) {
		if info == nil {
			fmt.Println("now playing: (nothing)")
			return
		}
		fmt.Printf("now playing: %s - %s (%.0fs / %.0fs)\n", info.Artist, info.Title, info.Elapsed, info.Duration)
	})
	defer unsubscribe()

	<-ctx.Done()
	fmt.Println()
}

func parseKey(name string) (device.Key, error) {
	if name == "" {
		return 0, fmt.Errorf("usage: atvremote [options] <key>")
	}
	for k := device.KeyUp; k <= device.KeyVolumeDown; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
